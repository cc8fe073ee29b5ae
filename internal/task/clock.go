package task

// Start opens a tracking session at now (epoch ms). Starting an already
// active account is a no-op, so a double-tap from two UI triggers cannot
// double-count.
func (tt TimeTracking) Start(now int64) TimeTracking {
	if tt.Active {
		return tt
	}
	out := tt.Clone()
	out.Active = true
	out.LastStarted = now
	out.Entries = append(out.Entries, TimeEntry{StartTime: now})
	return out
}

// Pause closes the open session at now and folds its duration into Total.
// Pausing an inactive account is a no-op.
func (tt TimeTracking) Pause(now int64) TimeTracking {
	if !tt.Active {
		return tt
	}
	out := tt.Clone()
	out.Active = false
	out.LastStarted = 0

	for i := len(out.Entries) - 1; i >= 0; i-- {
		if out.Entries[i].EndTime != nil {
			continue
		}
		dur := now - out.Entries[i].StartTime
		if dur < 0 {
			dur = 0
		}
		end := out.Entries[i].StartTime + dur
		out.Entries[i].EndTime = &end
		out.Entries[i].Duration = &dur
		out.Total += dur
		break
	}
	return out
}

// Elapsed returns closed time plus the live component of an open session,
// in ms. A LastStarted in the future (clock skew) contributes 0.
func (tt TimeTracking) Elapsed(now int64) int64 {
	total := tt.Total
	if tt.Active {
		live := now - tt.LastStarted
		if live < 0 {
			live = 0
		}
		total += live
	}
	return total
}
