package accounts

import (
	"fmt"
	"strconv"
)

// maxGLsPerGroup bounds a group's code range to group+1 .. group+999.
const maxGLsPerGroup = 999

// NextGLCode returns the code for a new GL under the group with groupCode.
// Codes outside the group's range or non-numeric codes are ignored.
func NextGLCode(groupCode string, existing []string) (string, error) {
	base, err := strconv.Atoi(groupCode)
	if err != nil {
		return "", fmt.Errorf("invalid group code %q: %w", groupCode, err)
	}

	highest := base
	for _, c := range existing {
		n, err := strconv.Atoi(c)
		if err != nil || n <= base || n > base+maxGLsPerGroup {
			continue
		}
		if n > highest {
			highest = n
		}
	}

	next := highest + 1
	if next > base+maxGLsPerGroup {
		return "", fmt.Errorf("group %s has reached the maximum of %d GL accounts", groupCode, maxGLsPerGroup)
	}
	return strconv.Itoa(next), nil
}
