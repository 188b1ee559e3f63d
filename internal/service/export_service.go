package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"schoolhub/timetable/internal/model"
	"schoolhub/timetable/internal/repository"
	pkgerrors "schoolhub/timetable/pkg/errors"
	"schoolhub/timetable/pkg/metrics"
	"schoolhub/timetable/pkg/timeutil"
)

// ── 导出模块业务错误 ──

var ErrExportGenerateFail = errors.New("生成导出文件失败")

const (
	icsDateTimeLayout = "20060102T150405"
	icsProductID      = "-//schoolhub//timetable//ZH"
)

// ExportService 班级分组周课表导出
//
//   - Excel：行为时间范围，列为周一至周日
//   - iCalendar：每个时间段一条按周重复的 VEVENT，首次发生日为锚定日期当天或之后的对应星期
//
// 导出内容以字节返回，由 Handler 层设置响应头后写出
type ExportService interface {
	ExportSectionXLSX(ctx context.Context, sectionID string) (*bytes.Buffer, string, error)
	ExportSectionICS(ctx context.Context, sectionID string) ([]byte, string, error)
}

type exportService struct {
	repo   *repository.Repository
	loc    *time.Location
	anchor string
	now    func() time.Time
	logger *zap.Logger
}

// NewExportService 创建 ExportService 实例
// anchor 为 "YYYY-MM-DD"，为空时以当天为锚定日期
func NewExportService(repo *repository.Repository, loc *time.Location, anchor string, logger *zap.Logger) ExportService {
	if loc == nil {
		loc = time.UTC
	}
	return &exportService{repo: repo, loc: loc, anchor: anchor, now: time.Now, logger: logger}
}

// ═══════════════════════════════════════════════════════════
// ExportSectionXLSX 导出周课表 Excel
// ═══════════════════════════════════════════════════════════

func (s *exportService) ExportSectionXLSX(ctx context.Context, sectionID string) (*bytes.Buffer, string, error) {
	section, slots, err := s.loadSection(ctx, sectionID)
	if err != nil {
		return nil, "", err
	}

	// 行：去重后的时间范围，按开始、结束时间排序
	type timeRange struct{ start, end string }
	seen := make(map[timeRange]bool)
	var ranges []timeRange
	cells := make(map[timeRange]map[int]string)

	for _, sl := range slots {
		r := timeRange{timeutil.FromStorage(sl.StartTime), timeutil.FromStorage(sl.EndTime)}
		if !seen[r] {
			seen[r] = true
			ranges = append(ranges, r)
			cells[r] = make(map[int]string)
		}
		cells[r][sl.DayOfWeek] = slotLabel(&sl)
	}
	sort.Slice(ranges, func(i, j int) bool {
		if ranges[i].start != ranges[j].start {
			return ranges[i].start < ranges[j].start
		}
		return ranges[i].end < ranges[j].end
	})

	days := timeutil.WeekDays()

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "课表"
	idx, _ := f.NewSheet(sheetName)
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	f.SetColWidth(sheetName, "A", "A", 14)
	f.SetColWidth(sheetName, colName(1), colName(len(days)), 18)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	// 标题行
	f.SetCellValue(sheetName, "A1", fmt.Sprintf("%s 周课表", section.Name))
	f.MergeCell(sheetName, "A1", cell(colName(len(days)), 1))
	f.SetCellStyle(sheetName, "A1", "A1", headerStyle)

	// 表头
	row := 2
	f.SetCellValue(sheetName, cell("A", row), "时间")
	for i, d := range days {
		f.SetCellValue(sheetName, cell(colName(i+1), row), d)
	}
	f.SetCellStyle(sheetName, cell("A", row), cell(colName(len(days)), row), headerStyle)

	// 数据行
	row = 3
	for _, r := range ranges {
		f.SetCellValue(sheetName, cell("A", row), fmt.Sprintf("%s-%s", r.start, r.end))
		for i, d := range days {
			dayIdx, _ := timeutil.DayIndex(d)
			text, ok := cells[r][dayIdx]
			if !ok {
				text = "-"
			}
			f.SetCellValue(sheetName, cell(colName(i+1), row), text)
		}
		row++
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.String("section_id", sectionID), zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	return buf, fmt.Sprintf("课表_%s.xlsx", section.Name), nil
}

// ═══════════════════════════════════════════════════════════
// ExportSectionICS 导出周课表 iCalendar
// ═══════════════════════════════════════════════════════════

func (s *exportService) ExportSectionICS(ctx context.Context, sectionID string) ([]byte, string, error) {
	section, slots, err := s.loadSection(ctx, sectionID)
	if err != nil {
		return nil, "", err
	}

	anchor, err := s.anchorDate()
	if err != nil {
		return nil, "", err
	}
	stamp := s.now().UTC()
	tzid := &ics.KeyValues{Key: string(ics.ParameterTzid), Value: []string{s.loc.String()}}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(icsProductID)
	cal.SetXWRCalName(section.Name)
	cal.SetXWRTimezone(s.loc.String())
	addTimezone(cal, s.loc, anchor)

	for i := range slots {
		sl := &slots[i]
		start, ok := timeutil.ToMinutes(timeutil.FromStorage(sl.StartTime))
		if !ok {
			continue
		}
		end, ok := timeutil.ToMinutes(timeutil.FromStorage(sl.EndTime))
		if !ok {
			continue
		}

		first := nextWeekday(anchor, sl.DayOfWeek)
		// 按墙上时间构造，夏令时切换日不偏移
		dtStart := time.Date(first.Year(), first.Month(), first.Day(), start/60, start%60, 0, 0, s.loc)
		dtEnd := time.Date(first.Year(), first.Month(), first.Day(), end/60, end%60, 0, 0, s.loc)

		evt := cal.AddEvent(sl.TimeSlotID + "@schoolhub-timetable")
		evt.SetDtStampTime(stamp)
		evt.SetCreatedTime(sl.CreatedAt)
		evt.SetModifiedAt(sl.UpdatedAt)
		evt.SetProperty(ics.ComponentPropertyDtStart, dtStart.Format(icsDateTimeLayout), tzid)
		evt.SetProperty(ics.ComponentPropertyDtEnd, dtEnd.Format(icsDateTimeLayout), tzid)
		evt.SetProperty(ics.ComponentPropertyRrule, "FREQ=WEEKLY")
		evt.SetSummary(slotLabel(sl))
		evt.SetProperty(ics.ComponentPropertyCategories, sl.SlotType)
	}

	return []byte(cal.Serialize()), fmt.Sprintf("课表_%s.ics", section.Name), nil
}

// ── 辅助函数 ──

// loadSection 读取班级分组及其全部时间段，day_of_week 非法的行被跳过
func (s *exportService) loadSection(ctx context.Context, sectionID string) (*model.Section, []model.TimeSlot, error) {
	section, err := s.repo.Section.GetByID(ctx, sectionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrSectionNotFound
		}
		s.logger.Error("查询班级分组失败", zap.String("section_id", sectionID), zap.Error(err))
		return nil, nil, pkgerrors.Persistence("section.get", err)
	}

	all, err := s.repo.TimeSlot.List(ctx, repository.TimeSlotFilter{SectionIDs: []string{sectionID}})
	if err != nil {
		s.logger.Error("查询班级分组时间段失败", zap.String("section_id", sectionID), zap.Error(err))
		return nil, nil, pkgerrors.Persistence("time_slot.list", err)
	}

	slots := all[:0]
	for _, sl := range all {
		if _, ok := timeutil.DayName(sl.DayOfWeek); !ok {
			s.logger.Warn("跳过异常时间段记录", zap.String("id", sl.TimeSlotID), zap.Int("day_of_week", sl.DayOfWeek))
			metrics.SkippedRows.Inc()
			continue
		}
		slots = append(slots, sl)
	}
	return section, slots, nil
}

// anchorDate 返回锚定日期在课表时区的零点
func (s *exportService) anchorDate() (time.Time, error) {
	if s.anchor == "" {
		now := s.now().In(s.loc)
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.loc), nil
	}
	t, err := time.ParseInLocation("2006-01-02", s.anchor, s.loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("解析日历锚定日期失败: %w", err)
	}
	return t, nil
}

// nextWeekday 返回 from 当天或之后第一个星期 day（0=Sunday）的零点
func nextWeekday(from time.Time, day int) time.Time {
	offset := (day - int(from.Weekday()) + 7) % 7
	return from.AddDate(0, 0, offset)
}

// addTimezone 写入与事件 TZID 对应的 VTIMEZONE
// 观测段取锚定日起两年内的偏移切换，客户端按最后一段外推
func addTimezone(cal *ics.Calendar, loc *time.Location, from time.Time) {
	tz := &ics.VTimezone{}
	tz.SetProperty(ics.ComponentProperty("TZID"), loc.String())

	start := from.In(loc)
	name, prev := start.Zone()
	tz.Components = append(tz.Components, observance(start.IsDST(), start, prev, prev, name))

	end := start.AddDate(2, 0, 0)
	for t := start.Add(time.Hour); t.Before(end); t = t.Add(time.Hour) {
		_, cur := t.Zone()
		if cur == prev {
			continue
		}
		// 在该小时内逐分钟定位切换时刻
		at := t.Add(-time.Hour)
		for {
			if _, o := at.Zone(); o != prev {
				break
			}
			at = at.Add(time.Minute)
		}
		name, _ := at.Zone()
		tz.Components = append(tz.Components, observance(at.IsDST(), at, prev, cur, name))
		prev = cur
	}

	cal.Components = append(cal.Components, tz)
}

// observance DTSTART 为切换前偏移下的本地时间
func observance(dst bool, at time.Time, fromOffset, toOffset int, name string) ics.Component {
	var base ics.ComponentBase
	base.SetProperty(ics.ComponentPropertyDtStart, at.In(time.FixedZone("", fromOffset)).Format(icsDateTimeLayout))
	base.SetProperty(ics.ComponentProperty("TZOFFSETFROM"), formatOffset(fromOffset))
	base.SetProperty(ics.ComponentProperty("TZOFFSETTO"), formatOffset(toOffset))
	if name != "" {
		base.SetProperty(ics.ComponentProperty("TZNAME"), name)
	}
	if dst {
		return &ics.Daylight{ComponentBase: base}
	}
	return &ics.Standard{ComponentBase: base}
}

func formatOffset(seconds int) string {
	sign := "+"
	if seconds < 0 {
		sign, seconds = "-", -seconds
	}
	return fmt.Sprintf("%s%02d%02d", sign, seconds/3600, seconds%3600/60)
}

func slotLabel(sl *model.TimeSlot) string {
	if sl.Title != "" {
		return sl.Title
	}
	return sl.SlotType
}

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
