package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"gorm.io/gorm"

	"schoolhub/timetable/internal/model"
	"schoolhub/timetable/internal/repository"
	pkgerrors "schoolhub/timetable/pkg/errors"
)

var errStoreDown = errors.New("connection refused")

// ── Mock TimeSlotRepository ──

type mockTimeSlotRepo struct {
	slots    map[string]*model.TimeSlot
	sections map[string]*model.Section
	seq      int

	// 注入故障
	listErr   error
	createErr error
	getErr    error
	updateErr error
	deleteErr error

	lastDeletedBy string
}

func newMockTimeSlotRepo(sections map[string]*model.Section) *mockTimeSlotRepo {
	return &mockTimeSlotRepo{slots: make(map[string]*model.TimeSlot), sections: sections}
}

func (m *mockTimeSlotRepo) Create(_ context.Context, slot *model.TimeSlot) error {
	if m.createErr != nil {
		return m.createErr
	}
	for _, s := range m.slots {
		if s.SectionID == slot.SectionID && s.DayOfWeek == slot.DayOfWeek && s.StartTime == slot.StartTime+":00" {
			return repository.ErrDuplicateSlot
		}
	}
	if slot.TimeSlotID == "" {
		m.seq++
		slot.TimeSlotID = fmt.Sprintf("ts-%d", m.seq)
	}
	now := time.Now()
	slot.CreatedAt, slot.UpdatedAt = now, now
	slot.Version = 1
	// 模拟数据库 time 列回读格式
	stored := *slot
	stored.StartTime += ":00"
	stored.EndTime += ":00"
	m.slots[slot.TimeSlotID] = &stored
	return nil
}

func (m *mockTimeSlotRepo) GetByID(_ context.Context, id string) (*model.TimeSlot, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	s, ok := m.slots[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *s
	cp.Section = m.sections[cp.SectionID]
	return &cp, nil
}

func (m *mockTimeSlotRepo) List(_ context.Context, filter repository.TimeSlotFilter) ([]model.TimeSlot, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	var allowed map[string]bool
	if filter.SectionIDs != nil {
		allowed = make(map[string]bool)
		for _, id := range filter.SectionIDs {
			allowed[id] = true
		}
	}

	result := make([]model.TimeSlot, 0)
	for _, s := range m.slots {
		if filter.DayOfWeek != nil && s.DayOfWeek != *filter.DayOfWeek {
			continue
		}
		if allowed != nil && !allowed[s.SectionID] {
			continue
		}
		if filter.TeacherID != "" && (s.TeacherID == nil || *s.TeacherID != filter.TeacherID) {
			continue
		}
		cp := *s
		cp.Section = m.sections[cp.SectionID]
		result = append(result, cp)
	}
	sortSlots(result)
	return result, nil
}

func (m *mockTimeSlotRepo) ListBySectionDay(_ context.Context, sectionID string, dayOfWeek int) ([]model.TimeSlot, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	result := make([]model.TimeSlot, 0)
	for _, s := range m.slots {
		if s.SectionID == sectionID && s.DayOfWeek == dayOfWeek {
			result = append(result, *s)
		}
	}
	sortSlots(result)
	return result, nil
}

func (m *mockTimeSlotRepo) Update(_ context.Context, slot *model.TimeSlot) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	cur, ok := m.slots[slot.TimeSlotID]
	if !ok || cur.Version != slot.Version {
		return pkgerrors.ErrOptimisticLock
	}
	stored := *slot
	stored.Section = nil
	stored.StartTime += ":00"
	stored.EndTime += ":00"
	stored.Version = slot.Version + 1
	stored.UpdatedAt = time.Now()
	m.slots[slot.TimeSlotID] = &stored
	slot.Version++
	return nil
}

func (m *mockTimeSlotRepo) Delete(_ context.Context, id string, deletedBy string) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	m.lastDeletedBy = deletedBy
	if _, ok := m.slots[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.slots, id)
	return nil
}

func sortSlots(slots []model.TimeSlot) {
	sort.Slice(slots, func(i, j int) bool {
		if slots[i].DayOfWeek != slots[j].DayOfWeek {
			return slots[i].DayOfWeek < slots[j].DayOfWeek
		}
		return slots[i].StartTime < slots[j].StartTime
	})
}

// ── Mock SectionRepository ──

type mockSectionRepo struct {
	sections map[string]*model.Section
	err      error
}

func (m *mockSectionRepo) GetByID(_ context.Context, id string) (*model.Section, error) {
	if m.err != nil {
		return nil, m.err
	}
	if s, ok := m.sections[id]; ok {
		return s, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockSectionRepo) ListIDsByClass(_ context.Context, classID string) ([]string, error) {
	if m.err != nil {
		return nil, m.err
	}
	ids := make([]string, 0)
	for id, s := range m.sections {
		if s.ClassID == classID {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// ── Mock SubjectRepository ──

type mockSubjectRepo struct {
	subjects map[string]*model.Subject
}

func (m *mockSubjectRepo) GetByID(_ context.Context, id string) (*model.Subject, error) {
	if s, ok := m.subjects[id]; ok {
		return s, nil
	}
	return nil, gorm.ErrRecordNotFound
}

// ── Mock TeacherSubjectRepository ──

type mockTeacherSubjectRepo struct {
	teachers map[string]string // subjectID → teacherID
	err      error
}

func (m *mockTeacherSubjectRepo) FirstTeacherForSubject(_ context.Context, subjectID string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	if t, ok := m.teachers[subjectID]; ok {
		return t, nil
	}
	return "", gorm.ErrRecordNotFound
}

// ── 测试夹具 ──

const (
	testSectionA   = "11111111-1111-1111-1111-111111111111"
	testSectionB   = "22222222-2222-2222-2222-222222222222"
	testClassID    = "cccccccc-cccc-cccc-cccc-cccccccccccc"
	testSubjectID  = "33333333-3333-3333-3333-333333333333"
	testTeacherID  = "44444444-4444-4444-4444-444444444444"
	testCallerID   = "55555555-5555-5555-5555-555555555555"
	testAcademicYr = "2025-2026"
)

type testRepos struct {
	repo           *repository.Repository
	slots          *mockTimeSlotRepo
	sections       *mockSectionRepo
	teacherSubject *mockTeacherSubjectRepo
}

func newTestRepos() *testRepos {
	sections := map[string]*model.Section{
		testSectionA: {SectionID: testSectionA, ClassID: testClassID, Name: "一年级 A 班"},
		testSectionB: {SectionID: testSectionB, ClassID: testClassID, Name: "一年级 B 班"},
	}
	slots := newMockTimeSlotRepo(sections)
	sectionRepo := &mockSectionRepo{sections: sections}
	teacherSubject := &mockTeacherSubjectRepo{teachers: map[string]string{testSubjectID: testTeacherID}}

	return &testRepos{
		repo: &repository.Repository{
			TimeSlot: slots,
			Section:  sectionRepo,
			Subject: &mockSubjectRepo{subjects: map[string]*model.Subject{
				testSubjectID: {SubjectID: testSubjectID, Name: "数学"},
			}},
			TeacherSubject: teacherSubject,
		},
		slots:          slots,
		sections:       sectionRepo,
		teacherSubject: teacherSubject,
	}
}
