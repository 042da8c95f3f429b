package framework

import (
	"errors"
	"fmt"
	"io"

	"github.com/l1jgo/playerbot/internal/autonomy"
	"github.com/l1jgo/playerbot/internal/core/event"
	"github.com/l1jgo/playerbot/internal/core/ident"
	"go.uber.org/zap"
)

var (
	ErrNotInGroup = errors.New("framework: caller is not in a group")
	ErrNoAutonomy = errors.New("framework: autonomy never enabled for group")
)

// 以下為聊天指令對應的控制介面。指令解析由宿主負責，這裡只處理語意：
// 每個操作都作用在呼叫者所在的隊伍。

func (f *Framework) groupOf(caller ident.EntityID) (ident.EntityID, error) {
	g, ok := f.host.GroupOf(caller)
	if !ok {
		return ident.Empty, fmt.Errorf("%w: %s", ErrNotInGroup, caller.Short())
	}
	return g, nil
}

// PauseAutonomy pauses the caller's group. It reports false when the group
// was already paused.
func (f *Framework) PauseAutonomy(caller ident.EntityID, reason string) (bool, error) {
	g, err := f.groupOf(caller)
	if err != nil {
		return false, err
	}
	return f.Autonomy.Pause(g, caller, reason), nil
}

// ResumeAutonomy clears the pause of the caller's group and returns the
// state autonomy resumes in.
func (f *Framework) ResumeAutonomy(caller ident.EntityID) (autonomy.State, error) {
	g, err := f.groupOf(caller)
	if err != nil {
		return autonomy.StateDisabled, err
	}
	return f.Autonomy.Resume(g, caller)
}

// ToggleAutonomy pauses a running group and resumes a paused one.
func (f *Framework) ToggleAutonomy(caller ident.EntityID) (autonomy.State, error) {
	g, err := f.groupOf(caller)
	if err != nil {
		return autonomy.StateDisabled, err
	}
	return f.Autonomy.Toggle(g, caller)
}

// EnableAutonomy turns autonomy on for the caller's group with the
// configured defaults. A paused group stays paused.
func (f *Framework) EnableAutonomy(caller ident.EntityID) (autonomy.State, error) {
	g, err := f.groupOf(caller)
	if err != nil {
		return autonomy.StateDisabled, err
	}
	return f.Autonomy.Enable(g, f.defaults), nil
}

// SetAggression applies the named tier to the caller's group.
func (f *Framework) SetAggression(caller ident.EntityID, tier string) error {
	a, err := autonomy.ParseAggression(tier)
	if err != nil {
		return err
	}
	g, err := f.groupOf(caller)
	if err != nil {
		return err
	}
	if err := f.Autonomy.SetAggression(g, a); err != nil {
		if errors.Is(err, autonomy.ErrUnknownGroup) {
			return fmt.Errorf("%w: %s", ErrNoAutonomy, g.Short())
		}
		return err
	}
	return nil
}

// AutonomyStatus reports the autonomy state of the caller's group.
func (f *Framework) AutonomyStatus(caller ident.EntityID) (autonomy.Status, error) {
	g, err := f.groupOf(caller)
	if err != nil {
		return autonomy.Status{}, err
	}
	st, ok := f.Autonomy.Snapshot(g)
	if !ok {
		return autonomy.Status{}, fmt.Errorf("%w: %s", ErrNoAutonomy, g.Short())
	}
	return st, nil
}

// AutonomyStatuses lists the status of every group autonomy knows.
func (f *Framework) AutonomyStatuses() []autonomy.Status {
	groups := f.Autonomy.Groups()
	out := make([]autonomy.Status, 0, len(groups))
	for _, g := range groups {
		if st, ok := f.Autonomy.Snapshot(g); ok {
			out = append(out, st)
		}
	}
	return out
}

// BusStats returns the statistics of every bus.
func (f *Framework) BusStats() []event.Stats {
	return f.Buses.Stats()
}

// DumpBusStats writes the bus statistics table to w.
func (f *Framework) DumpBusStats(w io.Writer) error {
	if err := f.Buses.WriteStats(w); err != nil {
		f.log.Warn("匯流排統計輸出失敗", zap.Error(err))
		return err
	}
	return nil
}
