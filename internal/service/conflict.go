package service

import (
	"schoolhub/timetable/internal/model"
	pkgerrors "schoolhub/timetable/pkg/errors"
	"schoolhub/timetable/pkg/timeutil"
)

// ── 时间冲突检测 ──────────────────────────────────────────
//
// 规则（半开区间 [start, end)）：同一天、非排除 ID 的已有时间段满足任一条件即冲突
//   - 候选开始时间落在 [existingStart, existingEnd)
//   - 候选结束时间落在 (existingStart, existingEnd]
//   - 候选区间完全覆盖已有区间
// 首尾相接（end == otherStart）不算冲突。单个班级分组一周最多几十条，线性扫描即可。
// ─────────────────────────────────────────────────────────────

// Interval 待检测的候选时间段
type Interval struct {
	DayOfWeek int
	StartTime string
	EndTime   string
}

// ExistingSlot 参与比对的已有时间段
type ExistingSlot struct {
	ID        string
	DayOfWeek int
	StartTime string
	EndTime   string
}

// HasConflict 判断候选时间段是否与已有时间段重叠
// 候选时间无法规范化时返回 ValidationError，而不是"无冲突"
func HasConflict(candidate Interval, existing []ExistingSlot, excludeID string) (bool, error) {
	slot, err := FindConflict(candidate, existing, excludeID)
	if err != nil {
		return false, err
	}
	return slot != nil, nil
}

// FindConflict 返回第一个与候选时间段重叠的已有时间段，无冲突时返回 nil
func FindConflict(candidate Interval, existing []ExistingSlot, excludeID string) (*ExistingSlot, error) {
	start, end, err := intervalMinutes(candidate.StartTime, candidate.EndTime)
	if err != nil {
		return nil, err
	}

	for i := range existing {
		e := &existing[i]
		if e.DayOfWeek != candidate.DayOfWeek {
			continue
		}
		if excludeID != "" && e.ID == excludeID {
			continue
		}

		es, ok := timeutil.ToMinutes(timeutil.FromStorage(e.StartTime))
		if !ok {
			continue
		}
		ee, ok := timeutil.ToMinutes(timeutil.FromStorage(e.EndTime))
		if !ok {
			continue
		}

		if overlaps(start, end, es, ee) {
			return e, nil
		}
	}
	return nil, nil
}

func overlaps(cs, ce, es, ee int) bool {
	return (cs >= es && cs < ee) ||
		(ce > es && ce <= ee) ||
		(cs <= es && ce >= ee)
}

// intervalMinutes 规范化并校验 start < end
func intervalMinutes(startTime, endTime string) (int, int, error) {
	start := timeutil.Normalize(startTime)
	if start == "" {
		return 0, 0, pkgerrors.NewValidationError("start_time", "无法识别的时间格式")
	}
	end := timeutil.Normalize(endTime)
	if end == "" {
		return 0, 0, pkgerrors.NewValidationError("end_time", "无法识别的时间格式")
	}

	s, _ := timeutil.ToMinutes(start)
	e, _ := timeutil.ToMinutes(end)
	if s >= e {
		return 0, 0, pkgerrors.NewValidationError("end_time", "结束时间必须晚于开始时间")
	}
	return s, e, nil
}

func toExistingSlots(slots []model.TimeSlot) []ExistingSlot {
	out := make([]ExistingSlot, 0, len(slots))
	for _, s := range slots {
		out = append(out, ExistingSlot{
			ID:        s.TimeSlotID,
			DayOfWeek: s.DayOfWeek,
			StartTime: s.StartTime,
			EndTime:   s.EndTime,
		})
	}
	return out
}
