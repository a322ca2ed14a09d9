package validate

import (
	"fmt"
	"strings"
	"time"

	"github.com/dukerupert/simp/internal/duration"
	"github.com/dukerupert/simp/internal/model"
)

// Schedule validates a create request and converts it into a NewSchedule.
// Date-only start dates are read as midnight in loc.
func Schedule(req model.ScheduleRequest, loc *time.Location) (model.NewSchedule, error) {
	var ns model.NewSchedule
	mt := req.MainTask

	title := strings.TrimSpace(mt.Name)
	if err := rules["taskName"].check("mainTask.name", title); err != nil {
		return ns, err
	}
	ns.Title = title

	desc := strings.TrimSpace(mt.Description)
	if err := rules["description"].check("mainTask.description", desc); err != nil {
		return ns, err
	}
	if desc != "" {
		ns.Description = &desc
	}

	start, err := parseStartDate(strings.TrimSpace(mt.StartDate), loc)
	if err != nil {
		return ns, err
	}
	ns.StartDate = start

	if err := checkDuration("mainTask.totalDuration", mt.TotalDuration); err != nil {
		return ns, err
	}
	ns.TotalDurationSeconds = duration.ToSeconds(mt.TotalDuration)

	if len(req.SubTasks) == 0 {
		return ns, &Error{Field: "subTasks", Message: "At least one sub-task is required."}
	}
	if len(req.SubTasks) > MaxSubTasks {
		return ns, &Error{Field: "subTasks", Message: fmt.Sprintf("A schedule can have at most %d sub-tasks.", MaxSubTasks)}
	}

	sum := 0
	ns.SubTasks = make([]model.NewSubTask, 0, len(req.SubTasks))
	for i, st := range req.SubTasks {
		name := strings.TrimSpace(st.Name)
		if err := rules["taskName"].check(fmt.Sprintf("subTasks[%d].name", i), name); err != nil {
			return ns, subTaskError(i, err)
		}
		if err := checkDuration(fmt.Sprintf("subTasks[%d].duration", i), st.Duration); err != nil {
			return ns, subTaskError(i, err)
		}
		secs := duration.ToSeconds(st.Duration)
		sum += secs
		ns.SubTasks = append(ns.SubTasks, model.NewSubTask{Name: name, DurationSeconds: secs})
	}

	if sum > ns.TotalDurationSeconds {
		return ns, &Error{
			Field: "subTasks",
			Message: fmt.Sprintf("The sub-tasks add up to %s, which exceeds the main task duration of %s.",
				duration.Format(sum), duration.Format(ns.TotalDurationSeconds)),
		}
	}
	return ns, nil
}

func checkDuration(field string, d duration.Duration) error {
	r := rules["duration"]
	for _, c := range []duration.Component{d.HH, d.MM, d.SS} {
		if strings.TrimSpace(string(c)) == "" {
			return &Error{Field: field, Message: r.missing}
		}
	}
	if err := r.check(field, d.String()); err != nil {
		return err
	}
	if d.MM.Int() > 59 || d.SS.Int() > 59 {
		return &Error{Field: field, Message: "Minutes and seconds must be between 00 and 59."}
	}
	if duration.ToSeconds(d) <= 0 {
		return &Error{Field: field, Message: "Duration must be greater than zero."}
	}
	return nil
}

func parseStartDate(s string, loc *time.Location) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	if loc == nil {
		loc = time.UTC
	}
	if t, err := time.ParseInLocation(time.DateOnly, s, loc); err == nil {
		return &t, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return &t, nil
	}
	return nil, &Error{Field: "mainTask.startDate", Message: "Start date must be a YYYY-MM-DD date or an RFC 3339 timestamp."}
}

func subTaskError(i int, err error) error {
	if ve, ok := err.(*Error); ok {
		return &Error{Field: ve.Field, Message: fmt.Sprintf("Sub-task %d: %s", i+1, ve.Message)}
	}
	return err
}
