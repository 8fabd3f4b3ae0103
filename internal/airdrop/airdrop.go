package airdrop

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/shopspring/decimal"

	"OmnichainNexus/internal/chain"
	"OmnichainNexus/internal/logx"
	"OmnichainNexus/internal/model"
	"OmnichainNexus/internal/notifier"
	"OmnichainNexus/internal/recorder"
	"OmnichainNexus/internal/render"
	"OmnichainNexus/internal/storage"
)

var (
	ErrAlreadyClaimed   = errors.New("airdrop already claimed")
	ErrNoTasksCompleted = errors.New("no tasks completed")
	ErrNotConnected     = errors.New("wallet not connected")
	ErrBusy             = errors.New("claim already in progress")
	ErrUnknownTask      = errors.New("unknown task")
	ErrNotSocialTask    = errors.New("task has no social link")
)

// KeyAirdropProgress is the storage key owned by TaskProgress.
const KeyAirdropProgress = "airdropProgress"

// ConnectWalletTask completes when a wallet is connected.
const ConnectWalletTask = "task1"

const (
	DefaultClaimDelay = 3 * time.Second
	DefaultVisitDelay = 2 * time.Second
)

// DefaultTasks returns the four promotional tasks, none completed.
func DefaultTasks() []model.Task {
	return []model.Task{
		{ID: "task1", Title: "Connect your wallet", Reward: decimal.RequireFromString("0.1")},
		{ID: "task2", Title: "Visit Monad on Twitter", Reward: decimal.RequireFromString("0.5")},
		{ID: "task3", Title: "Join the Monad Discord", Reward: decimal.NewFromInt(1)},
		{ID: "task4", Title: "Refer a friend", Reward: decimal.NewFromInt(3)},
	}
}

// SocialLink is the page a social task asks the user to visit.
type SocialLink struct {
	Name string
	URL  string
}

var socialLinks = map[string]SocialLink{
	"task2": {Name: "Twitter", URL: "https://twitter.com/Monad_XYZ"},
	"task3": {Name: "Discord", URL: "https://discord.gg/monad"},
}

// WalletReader is the read-only view of the wallet TaskProgress needs.
type WalletReader interface {
	Snapshot() model.WalletSnapshot
}

type Options struct {
	Store    storage.Storage
	Wallet   WalletReader
	Notifier notifier.Notifier
	Target   render.Target
	Recorder recorder.Recorder
	Clock    clock.Clock
	Symbol   string

	ClaimDelay time.Duration
	VisitDelay time.Duration
}

// TaskProgress tracks the promotional tasks and the one-time airdrop claim.
type TaskProgress struct {
	opts Options

	mu       sync.Mutex
	tasks    []model.Task
	claimed  bool
	claiming bool
}

// New creates a TaskProgress hydrated from storage. Delays left at zero take the
// defaults; a negative delay disables it.
func New(opts Options) (*TaskProgress, error) {
	if opts.Store == nil {
		opts.Store = storage.NewMemoryStorage()
	}
	if opts.Notifier == nil {
		opts.Notifier = notifier.LogNotifier{}
	}
	if opts.Target == nil {
		opts.Target = render.Discard{}
	}
	if opts.Recorder == nil {
		opts.Recorder = recorder.NewNoopRecorder()
	}
	if opts.Clock == nil {
		opts.Clock = clock.New()
	}
	if opts.Symbol == "" {
		opts.Symbol = "MONAD"
	}
	if opts.ClaimDelay == 0 {
		opts.ClaimDelay = DefaultClaimDelay
	}
	if opts.VisitDelay == 0 {
		opts.VisitDelay = DefaultVisitDelay
	}

	p := &TaskProgress{opts: opts, tasks: DefaultTasks()}
	if err := p.load(); err != nil {
		return nil, err
	}
	p.render()
	return p, nil
}

func (p *TaskProgress) load() error {
	var saved model.PersistedAirdrop
	found, err := storage.LoadJSON(p.opts.Store, KeyAirdropProgress, &saved)
	if err != nil || !found {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	for _, st := range saved.Tasks {
		for i := range p.tasks {
			if p.tasks[i].ID == st.ID {
				p.tasks[i].Completed = st.Completed
			}
		}
	}
	p.claimed = saved.Claimed
	return nil
}

func (p *TaskProgress) save() {
	p.mu.Lock()
	blob := model.PersistedAirdrop{Claimed: p.claimed}
	for _, t := range p.tasks {
		blob.Tasks = append(blob.Tasks, model.PersistedTask{ID: t.ID, Completed: t.Completed})
	}
	p.mu.Unlock()

	if err := storage.SaveJSON(p.opts.Store, KeyAirdropProgress, blob); err != nil {
		logx.Error("AIRDROP", "save progress: ", err)
	}
}

func (p *TaskProgress) Snapshot() model.AirdropSnapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snapshotLocked()
}

func (p *TaskProgress) snapshotLocked() model.AirdropSnapshot {
	snap := model.AirdropSnapshot{
		Tasks:       append([]model.Task(nil), p.tasks...),
		Claimed:     p.claimed,
		TotalReward: decimal.Zero,
	}
	for _, t := range p.tasks {
		if t.Completed {
			snap.CompletedCount++
			snap.TotalReward = snap.TotalReward.Add(t.Reward)
		}
	}
	if len(p.tasks) > 0 {
		snap.Percent = float64(snap.CompletedCount) / float64(len(p.tasks)) * 100
	}
	return snap
}

// ClaimLabel is the text of the claim control for the current state.
func (p *TaskProgress) ClaimLabel() (label string, enabled bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.claimLabelLocked()
}

func (p *TaskProgress) claimLabelLocked() (string, bool) {
	snap := p.snapshotLocked()
	switch {
	case p.claiming:
		return "Claiming...", false
	case p.claimed:
		return "Airdrop Claimed", false
	case snap.CompletedCount > 0:
		return fmt.Sprintf("Claim %s %s", snap.TotalReward.String(), p.opts.Symbol), true
	default:
		return "Complete Tasks to Claim", false
	}
}

func (p *TaskProgress) render() {
	p.mu.Lock()
	snap := p.snapshotLocked()
	label, enabled := p.claimLabelLocked()
	p.mu.Unlock()

	pct := int(math.Round(snap.Percent))
	p.opts.Target.Render(render.FieldAirdropProgress, strconv.Itoa(pct))
	p.opts.Target.Render(render.FieldProgressText, fmt.Sprintf("%d%% Complete", pct))
	p.opts.Target.Render(render.FieldClaimAirdrop, label)
	p.opts.Target.Render(render.FieldClaimEnabled, strconv.FormatBool(enabled))
}

// ToggleTask sets a task's completion flag.
func (p *TaskProgress) ToggleTask(id string, completed bool) error {
	p.mu.Lock()
	idx := -1
	for i := range p.tasks {
		if p.tasks[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		p.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrUnknownTask, id)
	}
	p.tasks[idx].Completed = completed
	total := p.snapshotLocked().TotalReward
	p.mu.Unlock()

	p.save()
	p.render()
	p.record(&recorder.TaskEvent{EventType: "TOGGLE", TaskID: id, Completed: completed, TotalReward: total})
	return nil
}

// Claim marks the airdrop claimed after the processing delay. Only one claim
// may be in flight; a concurrent call returns ErrBusy.
func (p *TaskProgress) Claim(ctx context.Context) error {
	p.mu.Lock()
	if p.claiming {
		p.mu.Unlock()
		return ErrBusy
	}
	if p.claimed {
		p.mu.Unlock()
		p.opts.Notifier.Notify(model.LevelError, "Airdrop already claimed!")
		return ErrAlreadyClaimed
	}
	snap := p.snapshotLocked()
	if snap.CompletedCount == 0 {
		p.mu.Unlock()
		p.opts.Notifier.Notify(model.LevelError, "Complete at least one task to claim the airdrop")
		return ErrNoTasksCompleted
	}
	if p.opts.Wallet == nil || !p.opts.Wallet.Snapshot().Connected {
		p.mu.Unlock()
		p.opts.Notifier.Notify(model.LevelError, "Please connect your wallet first!")
		return ErrNotConnected
	}
	p.claiming = true
	p.mu.Unlock()

	defer func() {
		p.mu.Lock()
		p.claiming = false
		p.mu.Unlock()
		p.render()
	}()
	p.render()

	if err := chain.Sleep(ctx, p.opts.Clock, p.opts.ClaimDelay); err != nil {
		logx.Error("AIRDROP", "claim interrupted: ", err)
		p.opts.Notifier.Notify(model.LevelError, "Failed to claim airdrop. Please try again.")
		return fmt.Errorf("claim airdrop: %w", err)
	}

	// tasks may have been toggled during the delay; report what was committed
	p.mu.Lock()
	p.claimed = true
	total := p.snapshotLocked().TotalReward
	p.mu.Unlock()
	p.save()

	logx.Info("AIRDROP", "claimed ", total.String())
	p.record(&recorder.TaskEvent{EventType: "CLAIM", TotalReward: total})
	p.opts.Notifier.Notify(model.LevelSuccess,
		fmt.Sprintf("Successfully claimed %s %s!", total.String(), p.opts.Symbol))
	return nil
}

// Reset clears every task and the claimed flag. Operator use only.
func (p *TaskProgress) Reset() {
	p.mu.Lock()
	for i := range p.tasks {
		p.tasks[i].Completed = false
	}
	p.claimed = false
	p.mu.Unlock()

	p.save()
	p.render()
	p.record(&recorder.TaskEvent{EventType: "RESET", TotalReward: decimal.Zero})
	p.opts.Notifier.Notify(model.LevelSuccess, "Airdrop progress reset")
}

// Link returns the social link of a task, if it has one.
func Link(id string) (SocialLink, bool) {
	l, ok := socialLinks[id]
	return l, ok
}

// VisitSocial announces the task's link and completes the task after the visit delay.
func (p *TaskProgress) VisitSocial(ctx context.Context, id string) error {
	link, ok := socialLinks[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotSocialTask, id)
	}
	p.opts.Notifier.Notify(model.LevelInfo, fmt.Sprintf("Opening %s: %s", link.Name, link.URL))

	if err := chain.Sleep(ctx, p.opts.Clock, p.opts.VisitDelay); err != nil {
		return fmt.Errorf("visit %s: %w", link.Name, err)
	}
	if err := p.ToggleTask(id, true); err != nil {
		return err
	}
	p.record(&recorder.TaskEvent{EventType: "VISIT", TaskID: id, Completed: true,
		TotalReward: p.Snapshot().TotalReward, Note: link.URL})
	p.opts.Notifier.Notify(model.LevelSuccess, link.Name+" visit task completed!")
	return nil
}

// SyncWalletTask mirrors the wallet connection into task1 without a notification.
func (p *TaskProgress) SyncWalletTask(connected bool) {
	p.mu.Lock()
	current := false
	for _, t := range p.tasks {
		if t.ID == ConnectWalletTask {
			current = t.Completed
		}
	}
	p.mu.Unlock()
	if current == connected {
		return
	}
	if err := p.ToggleTask(ConnectWalletTask, connected); err != nil {
		logx.Error("AIRDROP", "sync wallet task: ", err)
	}
}

func (p *TaskProgress) record(evt *recorder.TaskEvent) {
	if err := p.opts.Recorder.RecordTaskEvent(evt); err != nil {
		logx.Error("AIRDROP", "record task event: ", err)
	}
}
