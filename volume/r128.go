package volume

import (
	"math"
	"strconv"
	"strings"

	"github.com/skystar-p/zoog"
)

// formatR128 renders a FixedPointGain as the strict ASCII signed decimal
// integer the R128_TRACK_GAIN/R128_ALBUM_GAIN tags require: no leading
// zeros, no '+' for non-negative values.
func formatR128(g zoog.FixedPointGain) string {
	return strconv.FormatInt(int64(g.Raw()), 10)
}

// parseR128 reads an R128 tag value permissively: a leading '+' and
// surrounding whitespace are accepted even though emission never produces
// them.
func parseR128(s string) (zoog.FixedPointGain, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "+")
	v, err := strconv.ParseInt(s, 10, 32)
	if err != nil {
		return 0, err
	}
	if v < math.MinInt16 || v > math.MaxInt16 {
		return 0, zoog.NewError(zoog.GainOutOfBounds, "")
	}
	return zoog.FixedPointGainFromRaw(int16(v)), nil
}
