package formulas

// MACDSeries computes the MACD line, signal line, and histogram.
//
// The MACD line is EMA(fast) - EMA(slow) of the closes, the signal line is
// an EMA(signalSpan) of the MACD line, and the histogram is their
// difference. The EMAs are first-observation seeded (see EMASeries), so
// every position is defined.
func MACDSeries(closes []float64, fast, slow, signalSpan int) (macd, signal, hist []float64) {
	emaFast := EMASeries(closes, fast)
	emaSlow := EMASeries(closes, slow)

	macd = make([]float64, len(closes))
	for i := range closes {
		macd[i] = emaFast[i] - emaSlow[i]
	}

	signal = EMASeries(macd, signalSpan)

	hist = make([]float64, len(closes))
	for i := range closes {
		hist[i] = macd[i] - signal[i]
	}
	return macd, signal, hist
}
