package metrics

import (
	"io"

	"github.com/aybabtme/uniplot/histogram"
)

// histogramBarWidth はヒストグラムのバーの最大幅（文字数）
const histogramBarWidth = 40

// WriteHistogram はサンプル分布のヒストグラムを w に描画する
func WriteHistogram(w io.Writer, samples []float64, bins int) error {
	if len(samples) == 0 {
		return ErrNoSamples
	}
	if bins <= 0 {
		bins = 9
	}
	hist := histogram.Hist(bins, samples)
	return histogram.Fprint(w, hist, histogram.Linear(histogramBarWidth))
}
