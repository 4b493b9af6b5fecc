package cli

import (
	"math/rand/v2"

	"github.com/spf13/cobra"

	"github.com/lzoffoli-tg/checkupy/predictor"
)

func (a *app) demoCommand() *cobra.Command {
	var seed uint64
	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Predict one random sample (integers 1..100 per input label)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := a.open()
			if err != nil {
				return err
			}
			defer s.Close()

			rng := rand.New(rand.NewPCG(seed, seed))
			if !cmd.Flags().Changed("seed") {
				rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
			}
			sample := randomSample(rng, s.predictor.InputLabels())

			out, err := s.predictor.Predict(sample)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), map[string]any{
				"input":  sample,
				"output": out,
			})
		},
	}
	cmd.Flags().Uint64Var(&seed, "seed", 0, "random seed (default: random)")
	return cmd
}

func randomSample(rng *rand.Rand, labels predictor.Labels) predictor.Mapping {
	sample := make(predictor.Mapping, labels.Len())
	for _, name := range labels.Names() {
		sample[name] = float64(1 + rng.IntN(100))
	}
	return sample
}
