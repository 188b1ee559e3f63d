package service

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"schoolhub/timetable/internal/dto"
	"schoolhub/timetable/internal/model"
	pkgerrors "schoolhub/timetable/pkg/errors"
)

// ── 测试辅助 ──

func setupTestTimeSlotService() (TimeSlotService, *testRepos) {
	repos := newTestRepos()
	svc := NewTimeSlotService(repos.repo, testAcademicYr, zap.NewNop())
	return svc, repos
}

func strPtr(s string) *string { return &s }

func breakReq(day, start, end, title string) *dto.CreateTimeSlotRequest {
	return &dto.CreateTimeSlotRequest{
		SectionID: testSectionA,
		DayOfWeek: day,
		StartTime: start,
		EndTime:   end,
		SlotType:  model.SlotTypeBreak,
		Title:     title,
	}
}

// ── 端到端场景 ──

func TestTimeSlotService_ScenarioABC(t *testing.T) {
	svc, _ := setupTestTimeSlotService()
	ctx := context.Background()

	a, err := svc.Create(ctx, breakReq("Monday", "09:00", "10:00", "A"), testCallerID)
	if err != nil {
		t.Fatalf("创建 A 应成功: %v", err)
	}

	_, err = svc.Create(ctx, breakReq("Monday", "09:30", "10:30", "B"), testCallerID)
	if !errors.Is(err, ErrTimeSlotConflict) {
		t.Fatalf("B 与 A 重叠，期望 ErrTimeSlotConflict，实际: %v", err)
	}

	c, err := svc.Create(ctx, breakReq("Monday", "10:00", "11:00", "C"), testCallerID)
	if err != nil {
		t.Fatalf("C 与 A 首尾相接，应成功: %v", err)
	}

	list, err := svc.List(ctx, &dto.TimeSlotListRequest{SectionID: testSectionA, Day: "Monday"})
	if err != nil {
		t.Fatalf("List 应成功: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("期望 2 条时间段，实际 %d", len(list))
	}
	if list[0].ID != a.ID || list[1].ID != c.ID {
		t.Errorf("期望按开始时间排序为 A、C，实际 %s、%s", list[0].Title, list[1].Title)
	}
}

// ── Create 测试 ──

func TestTimeSlotService_Create_NormalizesAndMaps(t *testing.T) {
	svc, _ := setupTestTimeSlotService()

	result, err := svc.Create(context.Background(), breakReq("monday", "8 am", "8:30", "早读"), testCallerID)
	if err != nil {
		t.Fatalf("Create 应成功: %v", err)
	}
	if result.StartTime != "08:00" || result.EndTime != "08:30" {
		t.Errorf("期望 08:00-08:30，实际 %s-%s", result.StartTime, result.EndTime)
	}
	if result.DayOfWeek != "Monday" {
		t.Errorf("期望 DayOfWeek=Monday，实际=%s", result.DayOfWeek)
	}
	if result.ClassID != testClassID {
		t.Errorf("期望 ClassID=%s，实际=%s", testClassID, result.ClassID)
	}
	if result.AcademicYearID != testAcademicYr {
		t.Errorf("期望学年=%s，实际=%s", testAcademicYr, result.AcademicYearID)
	}
	if result.Version != 1 {
		t.Errorf("期望 Version=1，实际=%d", result.Version)
	}
}

func TestTimeSlotService_Create_SubjectDerivesTitleAndTeacher(t *testing.T) {
	svc, _ := setupTestTimeSlotService()

	req := &dto.CreateTimeSlotRequest{
		SectionID: testSectionA,
		DayOfWeek: "Tuesday",
		StartTime: "10:00",
		EndTime:   "10:45",
		SlotType:  model.SlotTypeSubject,
		SubjectID: strPtr(testSubjectID),
		Title:     "被忽略",
	}

	result, err := svc.Create(context.Background(), req, testCallerID)
	if err != nil {
		t.Fatalf("Create 应成功: %v", err)
	}
	if result.Title != "数学" {
		t.Errorf("期望标题取科目名 数学，实际=%s", result.Title)
	}
	if result.TeacherID == nil || *result.TeacherID != testTeacherID {
		t.Errorf("期望默认任课教师 %s，实际=%v", testTeacherID, result.TeacherID)
	}
}

func TestTimeSlotService_Create_ExplicitTeacherKept(t *testing.T) {
	svc, _ := setupTestTimeSlotService()
	other := "66666666-6666-6666-6666-666666666666"

	req := &dto.CreateTimeSlotRequest{
		SectionID: testSectionA,
		DayOfWeek: "Tuesday",
		StartTime: "10:00",
		EndTime:   "10:45",
		SlotType:  model.SlotTypeSubject,
		SubjectID: strPtr(testSubjectID),
		TeacherID: strPtr(other),
	}

	result, err := svc.Create(context.Background(), req, testCallerID)
	if err != nil {
		t.Fatalf("Create 应成功: %v", err)
	}
	if result.TeacherID == nil || *result.TeacherID != other {
		t.Errorf("期望保留指定教师 %s", other)
	}
}

func TestTimeSlotService_Create_TeacherLookupFailureIsNotFatal(t *testing.T) {
	svc, repos := setupTestTimeSlotService()
	repos.teacherSubject.err = errStoreDown

	req := &dto.CreateTimeSlotRequest{
		SectionID: testSectionA,
		DayOfWeek: "Friday",
		StartTime: "13:00",
		EndTime:   "14:00",
		SlotType:  model.SlotTypeSubject,
		SubjectID: strPtr(testSubjectID),
	}

	result, err := svc.Create(context.Background(), req, testCallerID)
	if err != nil {
		t.Fatalf("默认教师查询失败不应阻断创建: %v", err)
	}
	if result.TeacherID != nil {
		t.Errorf("期望教师为空，实际=%s", *result.TeacherID)
	}
}

func TestTimeSlotService_Create_ValidationErrors(t *testing.T) {
	cases := []struct {
		name string
		req  *dto.CreateTimeSlotRequest
	}{
		{"非法开始时间", breakReq("Monday", "noon", "13:00", "午休")},
		{"非法结束时间", breakReq("Monday", "12:00", "25:00", "午休")},
		{"开始晚于结束", breakReq("Monday", "13:00", "12:00", "午休")},
		{"开始等于结束", breakReq("Monday", "12:00", "12:00", "午休")},
		{"非法星期", breakReq("Funday", "12:00", "13:00", "午休")},
		{"break 缺标题", breakReq("Monday", "12:00", "13:00", "  ")},
		{"subject 缺科目", &dto.CreateTimeSlotRequest{
			SectionID: testSectionA, DayOfWeek: "Monday", StartTime: "08:00", EndTime: "09:00",
			SlotType: model.SlotTypeSubject,
		}},
		{"非法类型", &dto.CreateTimeSlotRequest{
			SectionID: testSectionA, DayOfWeek: "Monday", StartTime: "08:00", EndTime: "09:00",
			SlotType: "lunch", Title: "x",
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc, repos := setupTestTimeSlotService()
			// 校验失败必须发生在存储调用之前
			repos.sections.err = errStoreDown

			_, err := svc.Create(context.Background(), tc.req, testCallerID)
			if !pkgerrors.IsValidation(err) {
				t.Errorf("期望 ValidationError，实际: %v", err)
			}
			if len(repos.slots.slots) != 0 {
				t.Error("校验失败时不应写入")
			}
		})
	}
}

func TestTimeSlotService_Create_SectionNotFound(t *testing.T) {
	svc, _ := setupTestTimeSlotService()
	req := breakReq("Monday", "12:00", "13:00", "午休")
	req.SectionID = "99999999-9999-9999-9999-999999999999"

	_, err := svc.Create(context.Background(), req, testCallerID)
	if !errors.Is(err, ErrSectionNotFound) {
		t.Errorf("期望 ErrSectionNotFound，实际: %v", err)
	}
}

func TestTimeSlotService_Create_SubjectNotFound(t *testing.T) {
	svc, _ := setupTestTimeSlotService()
	req := &dto.CreateTimeSlotRequest{
		SectionID: testSectionA, DayOfWeek: "Monday", StartTime: "08:00", EndTime: "09:00",
		SlotType: model.SlotTypeSubject, SubjectID: strPtr("77777777-7777-7777-7777-777777777777"),
	}

	_, err := svc.Create(context.Background(), req, testCallerID)
	if !errors.Is(err, ErrSubjectNotFound) {
		t.Errorf("期望 ErrSubjectNotFound，实际: %v", err)
	}
	if !errors.Is(err, pkgerrors.ErrNotFound) {
		t.Error("ErrSubjectNotFound 应包装 ErrNotFound")
	}
}

func TestTimeSlotService_Create_OtherSectionOrDayDoesNotConflict(t *testing.T) {
	svc, _ := setupTestTimeSlotService()
	ctx := context.Background()

	if _, err := svc.Create(ctx, breakReq("Monday", "09:00", "10:00", "A"), testCallerID); err != nil {
		t.Fatalf("创建应成功: %v", err)
	}
	if _, err := svc.Create(ctx, breakReq("Tuesday", "09:00", "10:00", "A"), testCallerID); err != nil {
		t.Errorf("不同星期不应冲突: %v", err)
	}
	other := breakReq("Monday", "09:00", "10:00", "A")
	other.SectionID = testSectionB
	if _, err := svc.Create(ctx, other, testCallerID); err != nil {
		t.Errorf("不同班级分组不应冲突: %v", err)
	}
}

func TestTimeSlotService_Create_SameStartRejected(t *testing.T) {
	svc, repos := setupTestTimeSlotService()

	_ = repos.slots.Create(context.Background(), &model.TimeSlot{
		SectionID: testSectionA, DayOfWeek: 1, StartTime: "09:00", EndTime: "09:30", SlotType: model.SlotTypeBreak, Title: "x",
	})

	_, err := svc.Create(context.Background(), breakReq("Monday", "09:00", "09:20", "y"), testCallerID)
	if !errors.Is(err, ErrTimeSlotConflict) {
		t.Errorf("期望 ErrTimeSlotConflict，实际: %v", err)
	}
}

func TestTimeSlotService_Create_PersistenceError(t *testing.T) {
	svc, repos := setupTestTimeSlotService()
	repos.slots.createErr = errStoreDown

	_, err := svc.Create(context.Background(), breakReq("Monday", "12:00", "13:00", "午休"), testCallerID)
	if !pkgerrors.IsPersistence(err) {
		t.Fatalf("期望 PersistenceError，实际: %v", err)
	}
	if !errors.Is(err, errStoreDown) {
		t.Error("PersistenceError 应保留底层错误")
	}
}

func TestTimeSlotService_Create_ConflictReadFailure(t *testing.T) {
	svc, repos := setupTestTimeSlotService()
	repos.slots.listErr = errStoreDown

	_, err := svc.Create(context.Background(), breakReq("Monday", "12:00", "13:00", "午休"), testCallerID)
	if !pkgerrors.IsPersistence(err) {
		t.Errorf("冲突检测读取失败应返回 PersistenceError，实际: %v", err)
	}
}

// ── GetByID 测试 ──

func TestTimeSlotService_GetByID_NotFound(t *testing.T) {
	svc, _ := setupTestTimeSlotService()

	_, err := svc.GetByID(context.Background(), "nonexistent")
	if !errors.Is(err, ErrTimeSlotNotFound) {
		t.Errorf("期望 ErrTimeSlotNotFound，实际: %v", err)
	}
	if !errors.Is(err, pkgerrors.ErrNotFound) {
		t.Error("ErrTimeSlotNotFound 应包装 ErrNotFound")
	}
}

// ── List 测试 ──

func TestTimeSlotService_List_Filters(t *testing.T) {
	svc, _ := setupTestTimeSlotService()
	ctx := context.Background()

	_, _ = svc.Create(ctx, breakReq("Monday", "09:00", "10:00", "A"), testCallerID)
	_, _ = svc.Create(ctx, breakReq("Wednesday", "09:00", "10:00", "B"), testCallerID)
	other := breakReq("Monday", "11:00", "12:00", "C")
	other.SectionID = testSectionB
	_, _ = svc.Create(ctx, other, testCallerID)

	all, err := svc.List(ctx, &dto.TimeSlotListRequest{})
	if err != nil || len(all) != 3 {
		t.Fatalf("期望 3 条，实际 %d (err=%v)", len(all), err)
	}

	monday, _ := svc.List(ctx, &dto.TimeSlotListRequest{Day: "Monday"})
	if len(monday) != 2 {
		t.Errorf("Monday 期望 2 条，实际 %d", len(monday))
	}

	byClass, _ := svc.List(ctx, &dto.TimeSlotListRequest{ClassID: testClassID})
	if len(byClass) != 3 {
		t.Errorf("按班级期望 3 条，实际 %d", len(byClass))
	}

	byClassAndSection, _ := svc.List(ctx, &dto.TimeSlotListRequest{ClassID: testClassID, SectionID: testSectionB})
	if len(byClassAndSection) != 1 {
		t.Errorf("班级+分组期望 1 条，实际 %d", len(byClassAndSection))
	}
}

func TestTimeSlotService_List_UnknownClassIsEmpty(t *testing.T) {
	svc, _ := setupTestTimeSlotService()
	_, _ = svc.Create(context.Background(), breakReq("Monday", "09:00", "10:00", "A"), testCallerID)

	result, err := svc.List(context.Background(), &dto.TimeSlotListRequest{ClassID: "dddddddd-dddd-dddd-dddd-dddddddddddd"})
	if err != nil {
		t.Fatalf("List 应成功: %v", err)
	}
	if len(result) != 0 {
		t.Errorf("无分组的班级应返回空结果，实际 %d", len(result))
	}
}

func TestTimeSlotService_List_InvalidDay(t *testing.T) {
	svc, _ := setupTestTimeSlotService()

	_, err := svc.List(context.Background(), &dto.TimeSlotListRequest{Day: "Someday"})
	if !pkgerrors.IsValidation(err) {
		t.Errorf("期望 ValidationError，实际: %v", err)
	}
}

func TestTimeSlotService_List_SkipsMalformedRows(t *testing.T) {
	svc, repos := setupTestTimeSlotService()
	_, _ = svc.Create(context.Background(), breakReq("Monday", "09:00", "10:00", "A"), testCallerID)
	repos.slots.slots["bad"] = &model.TimeSlot{
		TimeSlotID: "bad", SectionID: testSectionA, DayOfWeek: 9,
		StartTime: "11:00:00", EndTime: "12:00:00", SlotType: model.SlotTypeBreak, Title: "bad",
	}

	result, err := svc.List(context.Background(), &dto.TimeSlotListRequest{})
	if err != nil {
		t.Fatalf("List 应成功: %v", err)
	}
	if len(result) != 1 || result[0].Title != "A" {
		t.Errorf("期望跳过异常行仅返回 A，实际 %+v", result)
	}
}

func TestTimeSlotService_List_PersistenceError(t *testing.T) {
	svc, repos := setupTestTimeSlotService()
	repos.slots.listErr = errStoreDown

	_, err := svc.List(context.Background(), &dto.TimeSlotListRequest{})
	if !pkgerrors.IsPersistence(err) {
		t.Errorf("期望 PersistenceError，实际: %v", err)
	}
}

// ── Update 测试 ──

func TestTimeSlotService_Update_PartialMerge(t *testing.T) {
	svc, _ := setupTestTimeSlotService()
	ctx := context.Background()
	created, _ := svc.Create(ctx, breakReq("Monday", "09:00", "10:00", "A"), testCallerID)

	result, err := svc.Update(ctx, created.ID, &dto.UpdateTimeSlotRequest{EndTime: strPtr("10:30")}, testCallerID)
	if err != nil {
		t.Fatalf("Update 应成功: %v", err)
	}
	if result.StartTime != "09:00" || result.EndTime != "10:30" {
		t.Errorf("期望 09:00-10:30，实际 %s-%s", result.StartTime, result.EndTime)
	}
	if result.Title != "A" {
		t.Errorf("未提交字段应保持不变，实际标题=%s", result.Title)
	}
	if result.Version != 2 {
		t.Errorf("期望 Version=2，实际=%d", result.Version)
	}
}

func TestTimeSlotService_Update_OverlapRejected(t *testing.T) {
	svc, _ := setupTestTimeSlotService()
	ctx := context.Background()
	a, _ := svc.Create(ctx, breakReq("Monday", "09:00", "10:00", "A"), testCallerID)
	_, _ = svc.Create(ctx, breakReq("Monday", "10:00", "11:00", "C"), testCallerID)

	_, err := svc.Update(ctx, a.ID, &dto.UpdateTimeSlotRequest{EndTime: strPtr("10:15")}, testCallerID)
	if !errors.Is(err, ErrTimeSlotConflict) {
		t.Errorf("期望 ErrTimeSlotConflict，实际: %v", err)
	}
}

func TestTimeSlotService_Update_SelfIsExcluded(t *testing.T) {
	svc, _ := setupTestTimeSlotService()
	ctx := context.Background()
	a, _ := svc.Create(ctx, breakReq("Monday", "09:00", "10:00", "A"), testCallerID)

	if _, err := svc.Update(ctx, a.ID, &dto.UpdateTimeSlotRequest{StartTime: strPtr("9:15")}, testCallerID); err != nil {
		t.Errorf("与自身重叠不应视为冲突: %v", err)
	}
}

func TestTimeSlotService_Update_InvertedRange(t *testing.T) {
	svc, _ := setupTestTimeSlotService()
	ctx := context.Background()
	a, _ := svc.Create(ctx, breakReq("Monday", "09:00", "10:00", "A"), testCallerID)

	_, err := svc.Update(ctx, a.ID, &dto.UpdateTimeSlotRequest{StartTime: strPtr("11:00")}, testCallerID)
	if !pkgerrors.IsValidation(err) {
		t.Errorf("合并后 start >= end 应返回 ValidationError，实际: %v", err)
	}
}

func TestTimeSlotService_Update_SwitchToSubject(t *testing.T) {
	svc, _ := setupTestTimeSlotService()
	ctx := context.Background()
	a, _ := svc.Create(ctx, breakReq("Monday", "09:00", "10:00", "A"), testCallerID)

	result, err := svc.Update(ctx, a.ID, &dto.UpdateTimeSlotRequest{
		SlotType:  strPtr(model.SlotTypeSubject),
		SubjectID: strPtr(testSubjectID),
	}, testCallerID)
	if err != nil {
		t.Fatalf("Update 应成功: %v", err)
	}
	if result.Title != "数学" {
		t.Errorf("切换为 subject 后标题应取科目名，实际=%s", result.Title)
	}
}

func TestTimeSlotService_Update_NotFound(t *testing.T) {
	svc, _ := setupTestTimeSlotService()

	_, err := svc.Update(context.Background(), "nonexistent", &dto.UpdateTimeSlotRequest{Title: strPtr("x")}, testCallerID)
	if !errors.Is(err, ErrTimeSlotNotFound) {
		t.Errorf("期望 ErrTimeSlotNotFound，实际: %v", err)
	}
}

func TestTimeSlotService_Update_OptimisticLock(t *testing.T) {
	svc, repos := setupTestTimeSlotService()
	ctx := context.Background()
	a, _ := svc.Create(ctx, breakReq("Monday", "09:00", "10:00", "A"), testCallerID)
	repos.slots.updateErr = pkgerrors.ErrOptimisticLock

	_, err := svc.Update(ctx, a.ID, &dto.UpdateTimeSlotRequest{Title: strPtr("B")}, testCallerID)
	if !errors.Is(err, pkgerrors.ErrOptimisticLock) {
		t.Errorf("期望 ErrOptimisticLock，实际: %v", err)
	}
}

// ── Delete 测试 ──

func TestTimeSlotService_Delete(t *testing.T) {
	svc, _ := setupTestTimeSlotService()
	ctx := context.Background()
	a, _ := svc.Create(ctx, breakReq("Monday", "09:00", "10:00", "A"), testCallerID)

	if err := svc.Delete(ctx, a.ID, testCallerID); err != nil {
		t.Fatalf("Delete 应成功: %v", err)
	}
	if _, err := svc.GetByID(ctx, a.ID); !errors.Is(err, ErrTimeSlotNotFound) {
		t.Errorf("删除后查询期望 ErrTimeSlotNotFound，实际: %v", err)
	}
	if err := svc.Delete(ctx, a.ID, testCallerID); !errors.Is(err, ErrTimeSlotNotFound) {
		t.Errorf("重复删除期望 ErrTimeSlotNotFound，实际: %v", err)
	}

	// 删除后同一时间可再次创建
	if _, err := svc.Create(ctx, breakReq("Monday", "09:00", "10:00", "A2"), testCallerID); err != nil {
		t.Errorf("删除后重新创建应成功: %v", err)
	}
}

// ── CheckConflict 测试 ──

func TestTimeSlotService_CheckConflict(t *testing.T) {
	svc, _ := setupTestTimeSlotService()
	ctx := context.Background()
	a, _ := svc.Create(ctx, breakReq("Monday", "09:00", "10:00", "A"), testCallerID)

	req := &dto.ConflictCheckRequest{SectionID: testSectionA, DayOfWeek: "Monday", StartTime: "09:30", EndTime: "10:30"}
	resp, err := svc.CheckConflict(ctx, req)
	if err != nil {
		t.Fatalf("CheckConflict 应成功: %v", err)
	}
	if !resp.Conflict || resp.ConflictingSlot == nil || resp.ConflictingSlot.ID != a.ID {
		t.Errorf("期望与 A 冲突，实际 %+v", resp)
	}

	req.ExcludeID = a.ID
	resp, _ = svc.CheckConflict(ctx, req)
	if resp.Conflict {
		t.Error("排除自身后不应冲突")
	}

	resp, _ = svc.CheckConflict(ctx, &dto.ConflictCheckRequest{SectionID: testSectionA, DayOfWeek: "Monday", StartTime: "10 am", EndTime: "11:00"})
	if resp.Conflict {
		t.Error("首尾相接不应冲突")
	}
}

func TestTimeSlotService_CheckConflict_InvalidTime(t *testing.T) {
	svc, _ := setupTestTimeSlotService()

	_, err := svc.CheckConflict(context.Background(), &dto.ConflictCheckRequest{
		SectionID: testSectionA, DayOfWeek: "Monday", StartTime: "soon", EndTime: "11:00",
	})
	if !pkgerrors.IsValidation(err) {
		t.Errorf("无法规范化的时间应返回 ValidationError，而不是无冲突: %v", err)
	}
}

// ── ComputeEndTime 测试 ──

func TestTimeSlotService_ComputeEndTime(t *testing.T) {
	svc, _ := setupTestTimeSlotService()

	resp, err := svc.ComputeEndTime(&dto.EndTimeRequest{Start: "8 am", Duration: 45})
	if err != nil {
		t.Fatalf("ComputeEndTime 应成功: %v", err)
	}
	if resp.StartTime != "08:00" || resp.EndTime != "08:45" {
		t.Errorf("期望 08:00-08:45，实际 %s-%s", resp.StartTime, resp.EndTime)
	}

	_, err = svc.ComputeEndTime(&dto.EndTimeRequest{Start: "23:30", Duration: 45})
	if !pkgerrors.IsValidation(err) {
		t.Errorf("跨越午夜应返回 ValidationError，实际: %v", err)
	}

	_, err = svc.ComputeEndTime(&dto.EndTimeRequest{Start: "later", Duration: 45})
	if !pkgerrors.IsValidation(err) {
		t.Errorf("非法开始时间应返回 ValidationError，实际: %v", err)
	}
}

// ── 存储故障 ──

func TestTimeSlotService_GetByID_StoreFailure(t *testing.T) {
	svc, repos := setupTestTimeSlotService()
	repos.slots.getErr = errStoreDown

	_, err := svc.GetByID(context.Background(), "ts-1")
	if !pkgerrors.IsPersistence(err) {
		t.Fatalf("期望 PersistenceError，实际: %v", err)
	}
	if errors.Is(err, ErrTimeSlotNotFound) {
		t.Error("存储故障不应被当作记录不存在")
	}
}

func TestTimeSlotService_Update_StoreFailure(t *testing.T) {
	svc, repos := setupTestTimeSlotService()
	ctx := context.Background()
	a, _ := svc.Create(ctx, breakReq("Monday", "09:00", "10:00", "A"), testCallerID)

	repos.slots.updateErr = errStoreDown
	_, err := svc.Update(ctx, a.ID, &dto.UpdateTimeSlotRequest{Title: strPtr("B")}, testCallerID)
	if !pkgerrors.IsPersistence(err) {
		t.Fatalf("期望 PersistenceError，实际: %v", err)
	}
	if !errors.Is(err, errStoreDown) {
		t.Error("PersistenceError 应保留原始错误")
	}
}

func TestTimeSlotService_Update_LookupFailure(t *testing.T) {
	svc, repos := setupTestTimeSlotService()
	repos.slots.getErr = errStoreDown

	_, err := svc.Update(context.Background(), "ts-1", &dto.UpdateTimeSlotRequest{Title: strPtr("B")}, testCallerID)
	if !pkgerrors.IsPersistence(err) {
		t.Errorf("期望 PersistenceError，实际: %v", err)
	}
}

func TestTimeSlotService_Delete_StoreFailure(t *testing.T) {
	svc, repos := setupTestTimeSlotService()
	ctx := context.Background()
	a, _ := svc.Create(ctx, breakReq("Monday", "09:00", "10:00", "A"), testCallerID)

	repos.slots.deleteErr = errStoreDown
	err := svc.Delete(ctx, a.ID, testCallerID)
	if !pkgerrors.IsPersistence(err) {
		t.Fatalf("期望 PersistenceError，实际: %v", err)
	}
	if !errors.Is(err, errStoreDown) {
		t.Error("PersistenceError 应保留原始错误")
	}
}

func TestTimeSlotService_Delete_NonUUIDCaller(t *testing.T) {
	svc, repos := setupTestTimeSlotService()
	ctx := context.Background()
	a, _ := svc.Create(ctx, breakReq("Monday", "09:00", "10:00", "A"), testCallerID)

	if err := svc.Delete(ctx, a.ID, "idp|user-42"); err != nil {
		t.Fatalf("Delete 应成功: %v", err)
	}
	if repos.slots.lastDeletedBy != "" {
		t.Errorf("非 UUID 调用方不应写入 deleted_by，实际 %q", repos.slots.lastDeletedBy)
	}

	b, _ := svc.Create(ctx, breakReq("Monday", "11:00", "12:00", "B"), testCallerID)
	_ = svc.Delete(ctx, b.ID, testCallerID)
	if repos.slots.lastDeletedBy != testCallerID {
		t.Errorf("期望 deleted_by=%s，实际 %q", testCallerID, repos.slots.lastDeletedBy)
	}
}
