package effect

import "image"

// AdjustTone applies the instant-film tone curve to img in place. Each pixel
// is transformed independently, in this order:
//
//  1. contrast boost: expand every channel around the 128 midpoint by
//     (1 + intensity)
//  2. blue enhancement: scale the blue channel by (1 + intensity*0.6)
//  3. highlight suppression: if the mean of the adjusted channels exceeds
//     200, darken all three by (1 - intensity*0.4)
//
// Channels are clamped to [0,255] after every step. The brightness test in
// step 3 reads the channel values as they stand after steps 1 and 2, not the
// original pixel; reordering would change which pixels get suppressed. At
// intensity 0 the whole transform is the identity.
func AdjustTone(img *image.RGBA, intensity float64) {
	contrast := 1 + intensity
	blueBoost := 1 + intensity*0.6
	suppress := 1 - intensity*0.4

	pix := img.Pix
	for i := 0; i+3 < len(pix); i += 4 {
		r := clampChannel((float64(pix[i])-128)*contrast + 128)
		g := clampChannel((float64(pix[i+1])-128)*contrast + 128)
		b := clampChannel((float64(pix[i+2])-128)*contrast + 128)

		b = clampChannel(float64(b) * blueBoost)

		if (int(r)+int(g)+int(b))/3 > 200 {
			r = clampChannel(float64(r) * suppress)
			g = clampChannel(float64(g) * suppress)
			b = clampChannel(float64(b) * suppress)
		}

		pix[i] = r
		pix[i+1] = g
		pix[i+2] = b
	}
}

func clampChannel(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}
