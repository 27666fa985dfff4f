package orders

import (
	"fmt"
	"strconv"
	"strings"
)

// codePrefix starts every order code; codes look like STN00042.
const codePrefix = "STN"

// nextCode formats the sequential order code following the highest
// existing suffix. Callers read the max suffix inside the creation
// transaction so concurrent creations collide on the unique index
// rather than silently duplicating.
func nextCode(maxSuffix int) string {
	return fmt.Sprintf("%s%05d", codePrefix, maxSuffix+1)
}

// codeSuffix parses the numeric tail of an order code. Unknown formats
// yield zero so a corrupt row never blocks new codes.
func codeSuffix(code string) int {
	raw := strings.TrimPrefix(code, codePrefix)
	suffix, err := strconv.Atoi(raw)
	if err != nil || suffix < 0 {
		return 0
	}
	return suffix
}
