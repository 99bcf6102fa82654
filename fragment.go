package edf

import "sort"

// Fragment is a run of contiguous data records sharing a linear time base.
// EDF+D files may have several, separated by time gaps. In EDF and EDF+C
// files consecutive fragments must abut in time; Open produces at most one
// for them, while Append adds one per appended file even when no gap opens.
type Fragment struct {
	StartRecord int
	EndRecord   int // inclusive
	StartTime   float64 // seconds relative to the file's start time
}

// Duration returns the fragment's span in seconds.
func (f Fragment) Duration(recordDuration float64) float64 {
	return float64(f.EndRecord-f.StartRecord+1) * recordDuration
}

// contiguityTolerance is the 1ms slack the fragment engine and the record
// loop use when comparing recorded and expected record start times.
const contiguityTolerance = 0.001

// markFragment creates or updates a fragment so the record at index begins
// at startTime, inserting an implicit fragment at record 0 if needed, then
// resorts and recomputes end indices.
func (f *File) markFragment(index int, startTime float64) {
	for i := range f.Fragments {
		if f.Fragments[i].StartRecord == index {
			f.Fragments[i].StartTime = startTime
			f.sortFragments()
			return
		}
	}
	if startTime > 0 && !f.hasFragmentAt(0) {
		f.Fragments = append(f.Fragments, Fragment{StartRecord: 0, StartTime: 0})
	}
	f.Fragments = append(f.Fragments, Fragment{StartRecord: index, StartTime: startTime})
	f.sortFragments()
}

func (f *File) hasFragmentAt(index int) bool {
	for _, frag := range f.Fragments {
		if frag.StartRecord == index {
			return true
		}
	}
	return false
}

func (f *File) sortFragments() {
	sort.Slice(f.Fragments, func(i, j int) bool {
		return f.Fragments[i].StartRecord < f.Fragments[j].StartRecord
	})
	f.recomputeFragmentEnds()
}

// recomputeFragmentEnds sets each fragment's EndRecord from the start of
// the next fragment, or NumDataRecords-1 for the last one.
func (f *File) recomputeFragmentEnds() {
	for i := range f.Fragments {
		if i+1 < len(f.Fragments) {
			f.Fragments[i].EndRecord = f.Fragments[i+1].StartRecord - 1
		} else {
			f.Fragments[i].EndRecord = f.Header.NumDataRecords - 1
		}
	}
}

// fragmentFor returns the fragment covering record index, or an implicit
// whole-file fragment starting at 0 if none have been recorded.
func (f *File) fragmentFor(index int) Fragment {
	var current Fragment
	found := false
	for _, frag := range f.Fragments {
		if frag.StartRecord <= index {
			current = frag
			found = true
		}
	}
	if !found {
		return Fragment{StartRecord: 0, EndRecord: f.Header.NumDataRecords - 1, StartTime: 0}
	}
	return current
}

// dataRecordStartTime returns the start time, in seconds relative to the
// file's start time, of the record at index.
func (f *File) dataRecordStartTime(index int) float64 {
	frag := f.fragmentFor(index)
	offset := index - frag.StartRecord
	return frag.StartTime + float64(offset)*f.Header.DataRecordDuration.Seconds()
}

// isContiguous reports whether the fragment list describes a single,
// unbroken run — the requirement for EDF and EDF+C files: every fragment
// starts, within contiguityTolerance, where the previous one ends.
func (f *File) isContiguous() bool {
	d := f.Header.DataRecordDuration.Seconds()
	for i := 1; i < len(f.Fragments); i++ {
		prev, next := f.Fragments[i-1], f.Fragments[i]
		gap := next.StartTime - (prev.StartTime + prev.Duration(d))
		if gap > contiguityTolerance || gap < -contiguityTolerance {
			return false
		}
	}
	return true
}
