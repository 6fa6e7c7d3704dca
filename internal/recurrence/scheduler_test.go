package recurrence

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"planner/internal/model"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 9, 0, 0, 0, time.UTC)
}

func baseTemplate(id string, s model.Schedule) model.RecurringTemplate {
	return model.RecurringTemplate{
		ID:          id,
		ProjectID:   1,
		Title:       "Weekly report " + id,
		Status:      model.StatusPaused,
		Priority:    model.PriorityHigh,
		Schedule:    s,
		DueStrategy: model.DueSameDay,
		Active:      true,
		CreatedAt:   date(2024, time.January, 1),
	}
}

func TestShouldMaterializeInactiveNeverFires(t *testing.T) {
	t.Parallel()
	schedules := []model.Schedule{
		{Type: model.ScheduleDaily},
		{Type: model.ScheduleWeekly, DaysOfWeek: []int{0, 1, 2, 3, 4, 5, 6}},
		{Type: model.ScheduleWeekly, Flexible: true},
		{Type: model.ScheduleMonthly, DayOfMonth: 1},
		{Type: model.ScheduleMonthly, Flexible: true},
	}
	for _, s := range schedules {
		tpl := baseTemplate("t", s)
		tpl.Active = false
		for day := 0; day < 62; day++ {
			now := date(2024, time.May, 1).AddDate(0, 0, day)
			assert.False(t, ShouldMaterialize(tpl, now, nil), "schedule %+v at %s", s, now)
		}
	}
}

func TestShouldMaterializeWeeklyFixedDays(t *testing.T) {
	t.Parallel()
	tpl := baseTemplate("mwf", model.Schedule{Type: model.ScheduleWeekly, DaysOfWeek: []int{1, 3, 5}, Interval: 1})

	// 2024-06-03 is a Monday.
	want := map[time.Weekday]bool{
		time.Monday:    true,
		time.Tuesday:   false,
		time.Wednesday: true,
		time.Thursday:  false,
		time.Friday:    true,
		time.Saturday:  false,
		time.Sunday:    false,
	}
	for i := 0; i < 7; i++ {
		now := date(2024, time.June, 3+i)
		assert.Equal(t, want[now.Weekday()], ShouldMaterialize(tpl, now, nil), now.Weekday().String())
	}
}

func TestShouldMaterializeWeeklyOncePerISOWeek(t *testing.T) {
	t.Parallel()
	tpl := baseTemplate("mwf", model.Schedule{Type: model.ScheduleWeekly, DaysOfWeek: []int{1, 3, 5}})
	monday := date(2024, time.June, 3)
	first := Materialize(tpl, monday)

	assert.False(t, ShouldMaterialize(tpl, date(2024, time.June, 5), []model.Task{first}))
	assert.True(t, ShouldMaterialize(tpl, date(2024, time.June, 10), []model.Task{first}))
}

func TestShouldMaterializeWeeklyFlexible(t *testing.T) {
	t.Parallel()
	tpl := baseTemplate("flex", model.Schedule{Type: model.ScheduleWeekly, Flexible: true})

	saturday := date(2024, time.June, 8)
	require.True(t, ShouldMaterialize(tpl, saturday, nil))
	inst := Materialize(tpl, saturday)

	// Sunday closes the same ISO week.
	assert.False(t, ShouldMaterialize(tpl, date(2024, time.June, 9), []model.Task{inst}))
	assert.True(t, ShouldMaterialize(tpl, date(2024, time.June, 10), []model.Task{inst}))
}

func TestShouldMaterializeWeeklyIntervalCountsFromCreation(t *testing.T) {
	t.Parallel()
	tpl := baseTemplate("biweekly", model.Schedule{Type: model.ScheduleWeekly, DaysOfWeek: []int{1}, Interval: 2})
	tpl.CreatedAt = time.Date(2024, time.June, 5, 15, 0, 0, 0, time.UTC) // Wednesday, week 23

	tests := []struct {
		now  time.Time
		want bool
	}{
		{now: date(2024, time.May, 27), want: false}, // before creation week
		{now: date(2024, time.June, 3), want: true},  // creation week
		{now: date(2024, time.June, 10), want: false},
		{now: date(2024, time.June, 17), want: true},
		{now: date(2024, time.June, 24), want: false},
		{now: date(2024, time.July, 1), want: true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ShouldMaterialize(tpl, tt.now, nil), tt.now.Format(dayLayout))
	}

	// A second template created a week later runs on the opposite weeks.
	other := tpl
	other.ID = "biweekly-2"
	other.CreatedAt = tpl.CreatedAt.AddDate(0, 0, 7)
	assert.False(t, ShouldMaterialize(other, date(2024, time.June, 17), nil))
	assert.True(t, ShouldMaterialize(other, date(2024, time.June, 24), nil))
}

func TestShouldMaterializeMonthlyClampsToLastDay(t *testing.T) {
	t.Parallel()
	tpl := baseTemplate("eom", model.Schedule{Type: model.ScheduleMonthly, DayOfMonth: 31})

	var fired []int
	var existing []model.Task
	for day := 1; day <= 30; day++ {
		now := date(2024, time.June, day)
		if ShouldMaterialize(tpl, now, existing) {
			fired = append(fired, day)
			existing = append(existing, Materialize(tpl, now))
		}
	}
	assert.Equal(t, []int{30}, fired)

	// Evaluated again on the 30th after materialization.
	assert.False(t, ShouldMaterialize(tpl, date(2024, time.June, 30), existing))

	// Leap-year February clamps to the 29th.
	assert.False(t, ShouldMaterialize(tpl, date(2024, time.February, 28), nil))
	assert.True(t, ShouldMaterialize(tpl, date(2024, time.February, 29), nil))
}

func TestShouldMaterializeMonthlyInterval(t *testing.T) {
	t.Parallel()
	tpl := baseTemplate("quarterly", model.Schedule{Type: model.ScheduleMonthly, DayOfMonth: 15, Interval: 3})
	tpl.CreatedAt = date(2024, time.January, 20)

	assert.True(t, ShouldMaterialize(tpl, date(2024, time.January, 15), nil))
	assert.False(t, ShouldMaterialize(tpl, date(2024, time.February, 15), nil))
	assert.False(t, ShouldMaterialize(tpl, date(2024, time.March, 15), nil))
	assert.True(t, ShouldMaterialize(tpl, date(2024, time.April, 15), nil))
	assert.False(t, ShouldMaterialize(tpl, date(2024, time.April, 16), nil))
}

func TestShouldMaterializeMonthlyFlexible(t *testing.T) {
	t.Parallel()
	tpl := baseTemplate("monthly-flex", model.Schedule{Type: model.ScheduleMonthly, Flexible: true})

	now := date(2024, time.March, 17)
	require.True(t, ShouldMaterialize(tpl, now, nil))
	inst := Materialize(tpl, now)
	assert.False(t, ShouldMaterialize(tpl, date(2024, time.March, 31), []model.Task{inst}))
	assert.True(t, ShouldMaterialize(tpl, date(2024, time.April, 1), []model.Task{inst}))
}

func TestShouldMaterializeIgnoresOtherTemplatesInstances(t *testing.T) {
	t.Parallel()
	tpl := baseTemplate("a", model.Schedule{Type: model.ScheduleDaily})
	other := Materialize(baseTemplate("b", model.Schedule{Type: model.ScheduleDaily}), date(2024, time.June, 1))

	assert.True(t, ShouldMaterialize(tpl, date(2024, time.June, 1), []model.Task{other}))
}

func TestMaterializeCopiesTemplate(t *testing.T) {
	t.Parallel()
	tpl := baseTemplate("copy", model.Schedule{Type: model.ScheduleWeekly, DaysOfWeek: []int{3}})
	tpl.DueStrategy = model.DueEndOfWeek
	tpl.Defaults = model.TemplateDefaults{
		Notes:       "check the dashboards",
		NextStep:    "send summary",
		OnsiteOwner: "alice",
		LineOwner:   "bob",
		Tags:        []string{"ops", "weekly"},
	}

	task := Materialize(tpl, date(2024, time.June, 5))

	due := time.Date(2024, time.June, 9, 0, 0, 0, 0, time.UTC)
	want := model.Task{
		ProjectID:   1,
		Title:       tpl.Title,
		Status:      model.StatusPaused,
		Priority:    model.PriorityHigh,
		DueDate:     &due,
		Notes:       "check the dashboards",
		NextStep:    "send summary",
		OnsiteOwner: "alice",
		LineOwner:   "bob",
		Tags:        []string{"ops", "weekly"},
		Extras:      model.TaskExtras{RecurrenceID: "copy", RecurrencePeriod: "2024-W23"},
	}
	if diff := cmp.Diff(want, task); diff != "" {
		t.Errorf("Materialize() mismatch (-want +got):\n%s", diff)
	}

	// The instance must not share the template's tag slice.
	task.Tags[0] = "changed"
	assert.Equal(t, "ops", tpl.Defaults.Tags[0])
}

func TestMaterializeFillsMissingStatusAndPriority(t *testing.T) {
	t.Parallel()
	tpl := baseTemplate("bare", model.Schedule{Type: model.ScheduleDaily})
	tpl.Status = ""
	tpl.Priority = ""

	task := Materialize(tpl, date(2024, time.June, 1))
	assert.Equal(t, model.StatusDoing, task.Status)
	assert.Equal(t, model.PriorityMedium, task.Priority)
}

func TestDueDate(t *testing.T) {
	t.Parallel()
	now := time.Date(2024, time.February, 10, 18, 30, 0, 0, time.UTC) // Saturday
	tests := []struct {
		strategy model.DueStrategy
		want     string
	}{
		{strategy: model.DueSameDay, want: "2024-02-10"},
		{strategy: model.DueEndOfWeek, want: "2024-02-11"},
		{strategy: model.DueEndOfMonth, want: "2024-02-29"},
		{strategy: model.DueNone, want: ""},
		{strategy: "", want: ""},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(string(tt.strategy), func(t *testing.T) {
			got := DueDate(tt.strategy, now)
			if tt.want == "" {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, tt.want, got.Format(dayLayout))
			assert.Equal(t, 0, got.Hour())
		})
	}
}

func TestDueDateKeepsLocation(t *testing.T) {
	t.Parallel()
	loc := time.FixedZone("UTC+8", 8*3600)
	// 2024-03-31 23:30 in UTC+8 is still March there.
	now := time.Date(2024, time.March, 31, 23, 30, 0, 0, loc)
	got := DueDate(model.DueEndOfMonth, now)
	require.NotNil(t, got)
	assert.Equal(t, "2024-03-31", got.Format(dayLayout))
	assert.Equal(t, loc, got.Location())
}

func TestPeriodKey(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		s    model.Schedule
		now  time.Time
		want string
	}{
		{name: "daily", s: model.Schedule{Type: model.ScheduleDaily}, now: date(2024, time.June, 1), want: "2024-06-01"},
		{name: "weekly", s: model.Schedule{Type: model.ScheduleWeekly}, now: date(2024, time.June, 5), want: "2024-W23"},
		{name: "weekly sunday", s: model.Schedule{Type: model.ScheduleWeekly}, now: date(2024, time.June, 9), want: "2024-W23"},
		{name: "iso year rollover", s: model.Schedule{Type: model.ScheduleWeekly, Flexible: true}, now: date(2024, time.December, 30), want: "2025-W01"},
		{name: "monthly", s: model.Schedule{Type: model.ScheduleMonthly, DayOfMonth: 3}, now: date(2024, time.June, 3), want: "2024-06"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PeriodKey(tt.s, tt.now))
		})
	}
}

func TestMaterializeAllDailyIsIdempotent(t *testing.T) {
	t.Parallel()
	tpl := baseTemplate("daily", model.Schedule{Type: model.ScheduleDaily})

	morning := time.Date(2024, time.June, 1, 9, 0, 0, 0, time.UTC)
	first := MaterializeAll([]model.RecurringTemplate{tpl}, morning, nil)
	require.Len(t, first.Tasks, 1)
	assert.Empty(t, first.Warnings)
	require.NotNil(t, first.Tasks[0].DueDate)
	assert.Equal(t, "2024-06-01", first.Tasks[0].DueDate.Format(dayLayout))
	assert.Equal(t, "2024-06-01", first.Tasks[0].Extras.RecurrencePeriod)

	evening := time.Date(2024, time.June, 1, 21, 0, 0, 0, time.UTC)
	second := MaterializeAll([]model.RecurringTemplate{tpl}, evening, first.Tasks)
	assert.Empty(t, second.Tasks)

	next := MaterializeAll([]model.RecurringTemplate{tpl}, morning.AddDate(0, 0, 1), first.Tasks)
	assert.Len(t, next.Tasks, 1)
}

func TestMaterializeAllKeepsTemplateOrder(t *testing.T) {
	t.Parallel()
	templates := []model.RecurringTemplate{
		baseTemplate("c", model.Schedule{Type: model.ScheduleDaily}),
		baseTemplate("a", model.Schedule{Type: model.ScheduleMonthly, Flexible: true}),
		baseTemplate("b", model.Schedule{Type: model.ScheduleWeekly, Flexible: true}),
	}

	res := MaterializeAll(templates, date(2024, time.June, 1), nil)
	require.Len(t, res.Tasks, 3)
	var ids []string
	for _, task := range res.Tasks {
		ids = append(ids, task.Extras.RecurrenceID)
	}
	assert.Equal(t, []string{"c", "a", "b"}, ids)
}

func TestMaterializeAllSkipsMalformedTemplates(t *testing.T) {
	t.Parallel()
	noDays := baseTemplate("no-days", model.Schedule{Type: model.ScheduleWeekly})
	noProject := baseTemplate("no-project", model.Schedule{Type: model.ScheduleDaily})
	noProject.ProjectID = 0
	inactiveBroken := baseTemplate("inactive", model.Schedule{Type: "yearly"})
	inactiveBroken.Active = false
	good := baseTemplate("good", model.Schedule{Type: model.ScheduleDaily})

	res := MaterializeAll([]model.RecurringTemplate{noDays, noProject, inactiveBroken, good}, date(2024, time.June, 1), nil)

	require.Len(t, res.Tasks, 1)
	assert.Equal(t, "good", res.Tasks[0].Extras.RecurrenceID)

	require.Len(t, res.Warnings, 2)
	assert.Equal(t, "no-days", res.Warnings[0].TemplateID)
	assert.ErrorIs(t, res.Warnings[0].Err, ErrInvalidSchedule)
	assert.Equal(t, "no-project", res.Warnings[1].TemplateID)
	assert.ErrorIs(t, res.Warnings[1].Err, ErrMissingField)
}

func TestMaterializeAllDuplicateTemplateInBatch(t *testing.T) {
	t.Parallel()
	tpl := baseTemplate("dup", model.Schedule{Type: model.ScheduleDaily})
	res := MaterializeAll([]model.RecurringTemplate{tpl, tpl}, date(2024, time.June, 1), nil)
	assert.Len(t, res.Tasks, 1)
}

func TestGroupByRecurrence(t *testing.T) {
	t.Parallel()
	tasks := []model.Task{
		{ID: 1, Extras: model.TaskExtras{RecurrenceID: "a"}},
		{ID: 2},
		{ID: 3, Extras: model.TaskExtras{RecurrenceID: "a"}},
		{ID: 4, Extras: model.TaskExtras{RecurrenceID: "b"}},
	}
	got := GroupByRecurrence(tasks)
	assert.Len(t, got, 2)
	assert.Len(t, got["a"], 2)
	assert.Len(t, got["b"], 1)
}
