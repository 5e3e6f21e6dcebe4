package feature

import "gocv.io/x/gocv"

// Small complex-Mat helpers backing MOSSE. A "complex Mat" here is always a
// 2-channel CV32FC2 Mat, channel 0 real and channel 1 imaginary.

func fft2(real gocv.Mat) gocv.Mat {
	imag := gocv.NewMatWithSize(real.Rows(), real.Cols(), gocv.MatTypeCV32F)
	defer imag.Close()

	planes := gocv.NewMat()
	defer planes.Close()
	gocv.Merge([]gocv.Mat{real, imag}, &planes)

	out := gocv.NewMat()
	gocv.DFT(planes, &out, gocv.DftComplexOutput)
	return out
}

func ifft2Real(complexMat gocv.Mat) gocv.Mat {
	out := gocv.NewMat()
	gocv.IDFT(complexMat, &out, gocv.DftScale|gocv.DftRealOutput, 0)
	return out
}

func splitComplex(m gocv.Mat) (re, im gocv.Mat) {
	parts := gocv.Split(m)
	return parts[0], parts[1]
}

func mergeComplex(re, im gocv.Mat) gocv.Mat {
	out := gocv.NewMat()
	gocv.Merge([]gocv.Mat{re, im}, &out)
	return out
}

// complexMul returns a*b.
func complexMul(a, b gocv.Mat) gocv.Mat {
	aRe, aIm := splitComplex(a)
	defer aRe.Close()
	defer aIm.Close()
	bRe, bIm := splitComplex(b)
	defer bRe.Close()
	defer bIm.Close()

	t1, t2, re := gocv.NewMat(), gocv.NewMat(), gocv.NewMat()
	defer t1.Close()
	defer t2.Close()
	gocv.Multiply(aRe, bRe, &t1)
	gocv.Multiply(aIm, bIm, &t2)
	gocv.Subtract(t1, t2, &re)

	t3, t4, im := gocv.NewMat(), gocv.NewMat(), gocv.NewMat()
	defer t3.Close()
	defer t4.Close()
	gocv.Multiply(aRe, bIm, &t3)
	gocv.Multiply(aIm, bRe, &t4)
	gocv.Add(t3, t4, &im)

	out := mergeComplex(re, im)
	re.Close()
	im.Close()
	return out
}

// complexMulConj returns a * conj(b).
func complexMulConj(a, b gocv.Mat) gocv.Mat {
	aRe, aIm := splitComplex(a)
	defer aRe.Close()
	defer aIm.Close()
	bRe, bIm := splitComplex(b)
	defer bRe.Close()
	defer bIm.Close()

	t1, t2, re := gocv.NewMat(), gocv.NewMat(), gocv.NewMat()
	defer t1.Close()
	defer t2.Close()
	gocv.Multiply(aRe, bRe, &t1)
	gocv.Multiply(aIm, bIm, &t2)
	gocv.Add(t1, t2, &re)

	t3, t4, im := gocv.NewMat(), gocv.NewMat(), gocv.NewMat()
	defer t3.Close()
	defer t4.Close()
	gocv.Multiply(aIm, bRe, &t3)
	gocv.Multiply(aRe, bIm, &t4)
	gocv.Subtract(t3, t4, &im)

	out := mergeComplex(re, im)
	re.Close()
	im.Close()
	return out
}

// complexDiv returns a/b, computed as a*conj(b)/|b|^2. Entries where |b|^2
// is zero are left as-is by adding a tiny epsilon to the denominator; callers
// guard the exact-zero case separately via hasZeroComplex before training.
func complexDiv(a, b gocv.Mat) gocv.Mat {
	bRe, bIm := splitComplex(b)
	defer bRe.Close()
	defer bIm.Close()

	bRe2, bIm2, denom := gocv.NewMat(), gocv.NewMat(), gocv.NewMat()
	defer bRe2.Close()
	defer bIm2.Close()
	defer denom.Close()
	gocv.Multiply(bRe, bRe, &bRe2)
	gocv.Multiply(bIm, bIm, &bIm2)
	gocv.Add(bRe2, bIm2, &denom)
	denom.AddFloat(1e-8)

	num := complexMulConj(a, b)
	defer num.Close()
	numRe, numIm := splitComplex(num)
	defer numRe.Close()
	defer numIm.Close()

	re, im := gocv.NewMat(), gocv.NewMat()
	gocv.Divide(numRe, denom, &re)
	gocv.Divide(numIm, denom, &im)

	out := mergeComplex(re, im)
	re.Close()
	im.Close()
	return out
}

func addInto(dst *gocv.Mat, src gocv.Mat) {
	sum := gocv.NewMat()
	gocv.Add(*dst, src, &sum)
	dst.Close()
	*dst = sum
}

// emaInto folds src into *dst by (1-lr)*dst + lr*src.
func emaInto(dst *gocv.Mat, src gocv.Mat, lr float64) {
	old := gocv.NewMat()
	dst.CopyTo(&old)
	defer old.Close()
	old.MultiplyFloat(float32(1 - lr))

	scaled := gocv.NewMat()
	src.CopyTo(&scaled)
	defer scaled.Close()
	scaled.MultiplyFloat(float32(lr))

	sum := gocv.NewMat()
	gocv.Add(old, scaled, &sum)
	dst.Close()
	*dst = sum
}

func hasZeroComplex(b gocv.Mat) bool {
	re, im := splitComplex(b)
	defer re.Close()
	defer im.Close()

	re2, im2, mag := gocv.NewMat(), gocv.NewMat(), gocv.NewMat()
	defer re2.Close()
	defer im2.Close()
	defer mag.Close()
	gocv.Multiply(re, re, &re2)
	gocv.Multiply(im, im, &im2)
	gocv.Add(re2, im2, &mag)

	minVal, _, _, _ := gocv.MinMaxLoc(mag)
	return minVal == 0
}

func meanStdDev(m gocv.Mat) (mean, std float64) {
	meanMat, stdMat := gocv.NewMat(), gocv.NewMat()
	defer meanMat.Close()
	defer stdMat.Close()
	gocv.MeanStdDev(m, &meanMat, &stdMat)
	return meanMat.GetDoubleAt(0, 0), stdMat.GetDoubleAt(0, 0)
}

func matMeanF(m gocv.Mat) float32 {
	mean, _ := meanStdDev(m)
	return float32(mean)
}

func matStdDevF(m gocv.Mat, _ float32) float32 {
	_, std := meanStdDev(m)
	return float32(std)
}
