package result

import "time"

func defaultStepTime() time.Time {
	return time.Now()
}
