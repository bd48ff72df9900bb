package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"gorm.io/gorm"

	"github.com/AryanVadhadiya/attendex/internal/model"
	"github.com/AryanVadhadiya/attendex/internal/repository"
)

// ── Mock UserRepository ──

type mockUserRepo struct {
	users map[string]*model.User
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*model.User)}
}

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	if user.UserID == "" {
		user.UserID = "user-" + user.Email
	}
	m.users[user.UserID] = user
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) Update(_ context.Context, user *model.User) error {
	m.users[user.UserID] = user
	return nil
}

func (m *mockUserRepo) UpdateSemesterWindow(_ context.Context, userID string, start, end time.Time) error {
	u, ok := m.users[userID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	u.SemesterStartDate = &start
	u.SemesterEndDate = &end
	return nil
}

// ── Mock SubjectRepository ──

type mockSubjectRepo struct {
	subjects  []*model.Subject
	idCounter int
}

func newMockSubjectRepo() *mockSubjectRepo {
	return &mockSubjectRepo{}
}

func (m *mockSubjectRepo) Create(_ context.Context, subject *model.Subject) error {
	if subject.SubjectID == "" {
		m.idCounter++
		subject.SubjectID = fmt.Sprintf("sub-%d", m.idCounter)
	}
	if subject.Color == "" {
		subject.Color = "#3b82f6"
	}
	m.subjects = append(m.subjects, subject)
	return nil
}

func (m *mockSubjectRepo) GetByID(_ context.Context, ownerID, id string) (*model.Subject, error) {
	for _, s := range m.subjects {
		if s.SubjectID == id && s.OwnerID == ownerID {
			return s, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockSubjectRepo) ListByOwner(_ context.Context, ownerID string) ([]model.Subject, error) {
	var result []model.Subject
	for _, s := range m.subjects {
		if s.OwnerID == ownerID {
			result = append(result, *s)
		}
	}
	return result, nil
}

func (m *mockSubjectRepo) Update(_ context.Context, subject *model.Subject) error {
	for i, s := range m.subjects {
		if s.SubjectID == subject.SubjectID {
			m.subjects[i] = subject
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (m *mockSubjectRepo) Delete(_ context.Context, ownerID, id string) error {
	for i, s := range m.subjects {
		if s.SubjectID == id && s.OwnerID == ownerID {
			m.subjects = append(m.subjects[:i], m.subjects[i+1:]...)
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

// ── Mock WeeklySlotRepository ──

type mockWeeklySlotRepo struct {
	slots     []model.WeeklySlot
	idCounter int
}

func newMockWeeklySlotRepo() *mockWeeklySlotRepo {
	return &mockWeeklySlotRepo{}
}

func (m *mockWeeklySlotRepo) Replace(_ context.Context, ownerID string, slots []model.WeeklySlot) ([]model.WeeklySlot, error) {
	var remaining []model.WeeklySlot
	for _, s := range m.slots {
		if s.OwnerID != ownerID {
			remaining = append(remaining, s)
		}
	}
	for i := range slots {
		m.idCounter++
		slots[i].WeeklySlotID = fmt.Sprintf("slot-%d", m.idCounter)
	}
	m.slots = append(remaining, slots...)
	return slots, nil
}

func (m *mockWeeklySlotRepo) ListByOwner(_ context.Context, ownerID string) ([]model.WeeklySlot, error) {
	var result []model.WeeklySlot
	for _, s := range m.slots {
		if s.OwnerID == ownerID {
			result = append(result, s)
		}
	}
	return result, nil
}

// ── Mock HolidayRepository ──

type mockHolidayRepo struct {
	holidays  []model.HolidayRange
	idCounter int
}

func newMockHolidayRepo() *mockHolidayRepo {
	return &mockHolidayRepo{}
}

func (m *mockHolidayRepo) Create(_ context.Context, holiday *model.HolidayRange) error {
	m.idCounter++
	if holiday.HolidayRangeID == "" {
		holiday.HolidayRangeID = fmt.Sprintf("hol-%d", m.idCounter)
	}
	m.holidays = append(m.holidays, *holiday)
	return nil
}

func (m *mockHolidayRepo) CreateBatch(ctx context.Context, holidays []model.HolidayRange) error {
	for i := range holidays {
		if err := m.Create(ctx, &holidays[i]); err != nil {
			return err
		}
	}
	return nil
}

func (m *mockHolidayRepo) Replace(ctx context.Context, ownerID string, holidays []model.HolidayRange) ([]model.HolidayRange, error) {
	var remaining []model.HolidayRange
	for _, h := range m.holidays {
		if h.OwnerID != ownerID {
			remaining = append(remaining, h)
		}
	}
	m.holidays = remaining
	if err := m.CreateBatch(ctx, holidays); err != nil {
		return nil, err
	}
	return holidays, nil
}

func (m *mockHolidayRepo) ListByOwner(_ context.Context, ownerID string) ([]model.HolidayRange, error) {
	var result []model.HolidayRange
	for _, h := range m.holidays {
		if h.OwnerID == ownerID {
			result = append(result, h)
		}
	}
	return result, nil
}

func (m *mockHolidayRepo) Delete(_ context.Context, ownerID, id string) (*model.HolidayRange, error) {
	for i, h := range m.holidays {
		if h.HolidayRangeID == id && h.OwnerID == ownerID {
			deleted := h
			m.holidays = append(m.holidays[:i], m.holidays[i+1:]...)
			return &deleted, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

// ── Mock OccurrenceRepository ──

type mockOccurrenceRepo struct {
	occurrences []model.Occurrence
	idCounter   int
}

func newMockOccurrenceRepo() *mockOccurrenceRepo {
	return &mockOccurrenceRepo{}
}

// BulkUpsert 模拟 (owner_id, date, start_hour) WHERE NOT is_adhoc 的部分索引冲突：
// 命中已有模板行时覆盖可变字段并清排除标记，否则新插入。
func (m *mockOccurrenceRepo) BulkUpsert(_ context.Context, occurrences []model.Occurrence) error {
	for _, in := range occurrences {
		matched := false
		for i := range m.occurrences {
			existing := &m.occurrences[i]
			if existing.IsAdhoc {
				continue
			}
			if existing.OwnerID == in.OwnerID && existing.Date.Equal(in.Date) && existing.StartHour == in.StartHour {
				existing.SubjectID = in.SubjectID
				existing.WeeklySlotID = in.WeeklySlotID
				existing.DurationHours = in.DurationHours
				existing.SessionType = in.SessionType
				existing.IsExcluded = false
				matched = true
				break
			}
		}
		if !matched {
			m.idCounter++
			in.OccurrenceID = fmt.Sprintf("occ-%d", m.idCounter)
			m.occurrences = append(m.occurrences, in)
		}
	}
	return nil
}

func (m *mockOccurrenceRepo) ExcludeTemplated(_ context.Context, ownerID string) error {
	for i := range m.occurrences {
		if m.occurrences[i].OwnerID == ownerID && !m.occurrences[i].IsAdhoc {
			m.occurrences[i].IsExcluded = true
		}
	}
	return nil
}

func (m *mockOccurrenceRepo) SetExcludedInRange(_ context.Context, ownerID string, from, to time.Time, excluded bool) (int64, error) {
	var count int64
	for i := range m.occurrences {
		o := &m.occurrences[i]
		if o.OwnerID != ownerID {
			continue
		}
		if o.Date.Before(from) || o.Date.After(to) {
			continue
		}
		o.IsExcluded = excluded
		count++
	}
	return count, nil
}

func (m *mockOccurrenceRepo) List(_ context.Context, ownerID string, f repository.OccurrenceFilter) ([]model.Occurrence, error) {
	var result []model.Occurrence
	for _, o := range m.occurrences {
		if o.OwnerID != ownerID {
			continue
		}
		if !f.IncludeExcluded && o.IsExcluded {
			continue
		}
		if f.SubjectID != "" && o.SubjectID != f.SubjectID {
			continue
		}
		if f.From != nil && o.Date.Before(*f.From) {
			continue
		}
		if f.To != nil && o.Date.After(*f.To) {
			continue
		}
		result = append(result, o)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Date.Equal(result[j].Date) {
			return result[i].StartHour < result[j].StartHour
		}
		return result[i].Date.Before(result[j].Date)
	})
	return result, nil
}

func (m *mockOccurrenceRepo) GetByID(_ context.Context, ownerID, id string) (*model.Occurrence, error) {
	for i := range m.occurrences {
		if m.occurrences[i].OccurrenceID == id && m.occurrences[i].OwnerID == ownerID {
			return &m.occurrences[i], nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockOccurrenceRepo) GetByIDs(_ context.Context, ownerID string, ids []string) ([]model.Occurrence, error) {
	wanted := make(map[string]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
	}
	var result []model.Occurrence
	for _, o := range m.occurrences {
		if o.OwnerID == ownerID && wanted[o.OccurrenceID] {
			result = append(result, o)
		}
	}
	return result, nil
}

func (m *mockOccurrenceRepo) Create(_ context.Context, occurrence *model.Occurrence) error {
	if occurrence.OccurrenceID == "" {
		m.idCounter++
		occurrence.OccurrenceID = fmt.Sprintf("occ-%d", m.idCounter)
	}
	m.occurrences = append(m.occurrences, *occurrence)
	return nil
}

func (m *mockOccurrenceRepo) Delete(_ context.Context, ownerID, id string) error {
	for i, o := range m.occurrences {
		if o.OccurrenceID == id && o.OwnerID == ownerID {
			m.occurrences = append(m.occurrences[:i], m.occurrences[i+1:]...)
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (m *mockOccurrenceRepo) DeleteAfter(_ context.Context, ownerID string, cutoff time.Time) (int64, error) {
	var remaining []model.Occurrence
	var removed int64
	for _, o := range m.occurrences {
		if o.OwnerID == ownerID && o.Date.After(cutoff) {
			removed++
			continue
		}
		remaining = append(remaining, o)
	}
	m.occurrences = remaining
	return removed, nil
}

func (m *mockOccurrenceRepo) DeleteByOwner(_ context.Context, ownerID string) error {
	var remaining []model.Occurrence
	for _, o := range m.occurrences {
		if o.OwnerID != ownerID {
			remaining = append(remaining, o)
		}
	}
	m.occurrences = remaining
	return nil
}

// ── Mock AttendanceRepository ──

// mockAttendanceRepo 持有课次 mock 的引用以模拟 ExistsAfter 的 JOIN
type mockAttendanceRepo struct {
	records     []model.AttendanceRecord
	occurrences *mockOccurrenceRepo
	idCounter   int
}

func newMockAttendanceRepo(occurrences *mockOccurrenceRepo) *mockAttendanceRepo {
	return &mockAttendanceRepo{occurrences: occurrences}
}

func (m *mockAttendanceRepo) find(occurrenceID, ownerID string) *model.AttendanceRecord {
	for i := range m.records {
		if m.records[i].OccurrenceID == occurrenceID && m.records[i].OwnerID == ownerID {
			return &m.records[i]
		}
	}
	return nil
}

func (m *mockAttendanceRepo) insert(record model.AttendanceRecord) {
	m.idCounter++
	record.AttendanceRecordID = fmt.Sprintf("att-%d", m.idCounter)
	m.records = append(m.records, record)
}

func (m *mockAttendanceRepo) UpsertMarks(_ context.Context, records []model.AttendanceRecord) (int64, error) {
	for _, in := range records {
		if existing := m.find(in.OccurrenceID, in.OwnerID); existing != nil {
			existing.Present = in.Present
			existing.CreatedBy = in.CreatedBy
			existing.IsAutoMarked = in.IsAutoMarked
			existing.Note = in.Note
			continue
		}
		m.insert(in)
	}
	return int64(len(records)), nil
}

func (m *mockAttendanceRepo) UpsertGrants(_ context.Context, records []model.AttendanceRecord) (int64, error) {
	for _, in := range records {
		if existing := m.find(in.OccurrenceID, in.OwnerID); existing != nil {
			existing.Present = in.Present
			existing.IsGranted = in.IsGranted
			existing.Note = in.Note
			existing.CreatedBy = in.CreatedBy
			continue
		}
		m.insert(in)
	}
	return int64(len(records)), nil
}

func (m *mockAttendanceRepo) InsertMissing(_ context.Context, records []model.AttendanceRecord) (int64, error) {
	var created int64
	for _, in := range records {
		if m.find(in.OccurrenceID, in.OwnerID) != nil {
			continue
		}
		m.insert(in)
		created++
	}
	return created, nil
}

func (m *mockAttendanceRepo) ListByOwner(_ context.Context, ownerID string) ([]model.AttendanceRecord, error) {
	var result []model.AttendanceRecord
	for _, r := range m.records {
		if r.OwnerID == ownerID {
			result = append(result, r)
		}
	}
	return result, nil
}

func (m *mockAttendanceRepo) ListByOccurrenceIDs(_ context.Context, ownerID string, occurrenceIDs []string) ([]model.AttendanceRecord, error) {
	wanted := make(map[string]bool, len(occurrenceIDs))
	for _, id := range occurrenceIDs {
		wanted[id] = true
	}
	var result []model.AttendanceRecord
	for _, r := range m.records {
		if r.OwnerID == ownerID && wanted[r.OccurrenceID] {
			result = append(result, r)
		}
	}
	return result, nil
}

func (m *mockAttendanceRepo) ListAutoMarked(_ context.Context, ownerID string) ([]model.AttendanceRecord, error) {
	var result []model.AttendanceRecord
	for _, r := range m.records {
		if r.OwnerID == ownerID && r.IsAutoMarked {
			result = append(result, r)
		}
	}
	return result, nil
}

func (m *mockAttendanceRepo) Acknowledge(_ context.Context, ownerID string, occurrenceIDs []string) (int64, error) {
	var wanted map[string]bool
	if occurrenceIDs != nil {
		wanted = make(map[string]bool, len(occurrenceIDs))
		for _, id := range occurrenceIDs {
			wanted[id] = true
		}
	}
	var count int64
	for i := range m.records {
		r := &m.records[i]
		if r.OwnerID != ownerID || !r.IsAutoMarked {
			continue
		}
		if wanted != nil && !wanted[r.OccurrenceID] {
			continue
		}
		r.IsAutoMarked = false
		r.CreatedBy = model.UserActor(ownerID)
		count++
	}
	return count, nil
}

func (m *mockAttendanceRepo) ExistsAfter(_ context.Context, ownerID string, cutoff time.Time) (bool, error) {
	dateByOcc := make(map[string]time.Time, len(m.occurrences.occurrences))
	for _, o := range m.occurrences.occurrences {
		dateByOcc[o.OccurrenceID] = o.Date
	}
	for _, r := range m.records {
		if r.OwnerID != ownerID {
			continue
		}
		if date, ok := dateByOcc[r.OccurrenceID]; ok && date.After(cutoff) {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockAttendanceRepo) DeleteByOwner(_ context.Context, ownerID string) error {
	var remaining []model.AttendanceRecord
	for _, r := range m.records {
		if r.OwnerID != ownerID {
			remaining = append(remaining, r)
		}
	}
	m.records = remaining
	return nil
}

func (m *mockAttendanceRepo) DeleteByOccurrence(_ context.Context, ownerID, occurrenceID string) error {
	var remaining []model.AttendanceRecord
	for _, r := range m.records {
		if r.OwnerID == ownerID && r.OccurrenceID == occurrenceID {
			continue
		}
		remaining = append(remaining, r)
	}
	m.records = remaining
	return nil
}

// ── Mock GrantRepository ──

type mockGrantRepo struct {
	grants    []model.GrantedAttendance
	idCounter int
}

func newMockGrantRepo() *mockGrantRepo {
	return &mockGrantRepo{}
}

func (m *mockGrantRepo) Create(_ context.Context, grant *model.GrantedAttendance) error {
	if grant.GrantedAttendanceID == "" {
		m.idCounter++
		grant.GrantedAttendanceID = fmt.Sprintf("grant-%d", m.idCounter)
	}
	m.grants = append(m.grants, *grant)
	return nil
}

func (m *mockGrantRepo) ListByOwner(_ context.Context, ownerID string) ([]model.GrantedAttendance, error) {
	var result []model.GrantedAttendance
	for _, g := range m.grants {
		if g.OwnerID == ownerID {
			result = append(result, g)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[j].StartDate.Before(result[i].StartDate)
	})
	return result, nil
}

func (m *mockGrantRepo) GetByID(_ context.Context, ownerID, grantID string) (*model.GrantedAttendance, error) {
	for i := range m.grants {
		if m.grants[i].GrantedAttendanceID == grantID && m.grants[i].OwnerID == ownerID {
			return &m.grants[i], nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockGrantRepo) Delete(_ context.Context, ownerID, grantID string) error {
	for i, g := range m.grants {
		if g.GrantedAttendanceID == grantID && g.OwnerID == ownerID {
			m.grants = append(m.grants[:i], m.grants[i+1:]...)
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

// ── Mock AuditRepository ──

type mockAuditRepo struct {
	logs []model.AuditLog
}

func newMockAuditRepo() *mockAuditRepo {
	return &mockAuditRepo{}
}

func (m *mockAuditRepo) Create(_ context.Context, log *model.AuditLog) error {
	m.logs = append(m.logs, *log)
	return nil
}

func (m *mockAuditRepo) ListByOwner(_ context.Context, ownerID string, limit int) ([]model.AuditLog, error) {
	var result []model.AuditLog
	for _, l := range m.logs {
		if l.OwnerID == ownerID {
			result = append(result, l)
		}
	}
	return result, nil
}

// ── 测试公共夹具 ──

// testRepos 聚合全部 mock，便于各服务测试按需取用
type testRepos struct {
	user       *mockUserRepo
	subject    *mockSubjectRepo
	weeklySlot *mockWeeklySlotRepo
	holiday    *mockHolidayRepo
	occurrence *mockOccurrenceRepo
	attendance *mockAttendanceRepo
	grant      *mockGrantRepo
	audit      *mockAuditRepo
}

func newTestRepos() (*repository.Repository, *testRepos) {
	occurrence := newMockOccurrenceRepo()
	mocks := &testRepos{
		user:       newMockUserRepo(),
		subject:    newMockSubjectRepo(),
		weeklySlot: newMockWeeklySlotRepo(),
		holiday:    newMockHolidayRepo(),
		occurrence: occurrence,
		attendance: newMockAttendanceRepo(occurrence),
		grant:      newMockGrantRepo(),
		audit:      newMockAuditRepo(),
	}
	repo := &repository.Repository{
		User:       mocks.user,
		Subject:    mocks.subject,
		WeeklySlot: mocks.weeklySlot,
		Holiday:    mocks.holiday,
		Occurrence: mocks.occurrence,
		Attendance: mocks.attendance,
		Grant:      mocks.grant,
		Audit:      mocks.audit,
	}
	return repo, mocks
}
