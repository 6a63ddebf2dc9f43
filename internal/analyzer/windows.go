package analyzer

import (
	"math"

	"scope-service/internal/model"
)

// windowCoefficients builds the N-point coefficient table for fn (spec
// §4.6 item 3's defining formulas), grounded on
// libOpenHantek/analyse/spectrumgenerator.cpp's window table, which
// uses the same fixed constants for Blackman/Nuttall/Blackman-Harris/
// Blackman-Nuttall/Flat-top rather than the textbook-generic forms.
func windowCoefficients(fn model.WindowFunction, n int) []float64 {
	out := make([]float64, n)
	if n == 1 {
		out[0] = 1
		return out
	}
	nm1 := float64(n - 1)

	switch fn {
	case model.WindowRectangular:
		for i := range out {
			out[i] = 1
		}

	case model.WindowHamming:
		for i := range out {
			out[i] = 0.54 - 0.46*math.Cos(2*math.Pi*float64(i)/nm1)
		}

	case model.WindowHann:
		for i := range out {
			out[i] = 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/nm1))
		}

	case model.WindowCosine:
		for i := range out {
			out[i] = math.Sin(math.Pi * float64(i) / nm1)
		}

	case model.WindowLanczos:
		for i := range out {
			x := 2*float64(i)/nm1 - 1
			out[i] = sinc(x)
		}

	case model.WindowBartlett:
		for i := range out {
			out[i] = 1 - math.Abs((float64(i)-nm1/2)/(nm1/2))
		}

	case model.WindowTriangular:
		half := float64(n) / 2
		for i := range out {
			out[i] = 1 - math.Abs((float64(i)-nm1/2)/half)
		}

	case model.WindowGauss:
		const sigma = 0.4
		for i := range out {
			x := (float64(i) - nm1/2) / (sigma * nm1 / 2)
			out[i] = math.Exp(-0.5 * x * x)
		}

	case model.WindowBartlettHann:
		for i := range out {
			t := float64(i)/nm1 - 0.5
			out[i] = 0.62 - 0.48*math.Abs(t) - 0.38*math.Cos(2*math.Pi*float64(i)/nm1)
		}

	case model.WindowBlackman:
		const alpha = 0.16
		a0, a1, a2 := (1-alpha)/2, 0.5, alpha/2
		for i := range out {
			w := 2 * math.Pi * float64(i) / nm1
			out[i] = a0 - a1*math.Cos(w) + a2*math.Cos(2*w)
		}

	case model.WindowNuttall:
		const a0, a1, a2, a3 = 0.355768, 0.487396, 0.144232, 0.012604
		for i := range out {
			w := 2 * math.Pi * float64(i) / nm1
			out[i] = a0 - a1*math.Cos(w) + a2*math.Cos(2*w) - a3*math.Cos(3*w)
		}

	case model.WindowBlackmanHarris:
		const a0, a1, a2, a3 = 0.35875, 0.48829, 0.14128, 0.01168
		for i := range out {
			w := 2 * math.Pi * float64(i) / nm1
			out[i] = a0 - a1*math.Cos(w) + a2*math.Cos(2*w) - a3*math.Cos(3*w)
		}

	case model.WindowBlackmanNuttall:
		const a0, a1, a2, a3 = 0.3635819, 0.4891775, 0.1365995, 0.0106411
		for i := range out {
			w := 2 * math.Pi * float64(i) / nm1
			out[i] = a0 - a1*math.Cos(w) + a2*math.Cos(2*w) - a3*math.Cos(3*w)
		}

	case model.WindowFlatTop:
		const a0, a1, a2, a3, a4 = 0.21557895, 0.41663158, 0.277263158, 0.083578947, 0.006947368
		for i := range out {
			w := 2 * math.Pi * float64(i) / nm1
			out[i] = a0 - a1*math.Cos(w) + a2*math.Cos(2*w) - a3*math.Cos(3*w) + a4*math.Cos(4*w)
		}

	default:
		for i := range out {
			out[i] = 1
		}
	}

	return out
}

func sinc(x float64) float64 {
	if x == 0 {
		return 1
	}
	px := math.Pi * x
	return math.Sin(px) / px
}
