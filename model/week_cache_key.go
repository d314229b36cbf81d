package model

import "fmt"

// WeekCacheKey identifies one generation of a class week. Equal keys mean equal inputs.
type WeekCacheKey struct {
	ClassID             uint
	Week                int
	ScheduleFingerprint string
	SyllabusFingerprint string
}

func (k WeekCacheKey) String() string {
	return fmt.Sprintf("%d:%d:%s:%s", k.ClassID, k.Week, k.ScheduleFingerprint, k.SyllabusFingerprint)
}
