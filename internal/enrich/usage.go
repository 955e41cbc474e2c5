package enrich

import (
	"go.uber.org/zap"

	"github.com/sells-group/leadgen-cli/internal/cost"
)

func logUsage(provider, model string, mode Mode, input, output int64) {
	zap.L().Info("completion usage",
		zap.String("provider", provider),
		zap.String("model", model),
		zap.String("mode", string(mode)),
		zap.Int64("input_tokens", input),
		zap.Int64("output_tokens", output),
		zap.Float64("estimated_cost_usd", cost.Default().Completion(model, input, output)),
	)
}
