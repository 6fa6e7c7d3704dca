// Package recurrence turns recurring templates into concrete task instances.
//
// Everything here is a pure function of its arguments: the caller supplies the
// templates, the reference time and the tasks that already exist, and gets
// back the tasks that should be created. Persisting them is up to the caller.
//
// Calendar conventions:
//   - Weeks start on Monday. Weekly period keys are ISO-8601 weeks (2024-W22)
//     and the endOfWeek due strategy lands on Sunday.
//   - Schedule.DaysOfWeek uses time.Weekday numbering (Sunday=0), so a
//     template firing on Sunday fires at the end of its ISO week.
//   - Intervals count whole periods elapsed since the period in which the
//     template was created. A template created in week 10 with interval 3
//     fires in weeks 10, 13, 16 and so on.
//   - All calendar arithmetic happens in the location of the reference time.
package recurrence
