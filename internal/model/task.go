package model

import "github.com/shopspring/decimal"

// Task is one of the fixed promotional tasks. Only Completed changes.
type Task struct {
	ID        string          `json:"id"`
	Title     string          `json:"title"`
	Completed bool            `json:"completed"`
	Reward    decimal.Decimal `json:"reward"`
}

// AirdropSnapshot is a read-only view of task progress.
type AirdropSnapshot struct {
	Tasks          []Task          `json:"tasks"`
	Claimed        bool            `json:"claimed"`
	TotalReward    decimal.Decimal `json:"total_reward"`
	CompletedCount int             `json:"completed_count"`
	Percent        float64         `json:"percent"`
}

// PersistedTask is the per-task entry in the airdropProgress blob.
type PersistedTask struct {
	ID        string `json:"id"`
	Completed bool   `json:"completed"`
}

// PersistedAirdrop is the JSON blob stored under the airdropProgress key.
// TotalReward is derived and never stored.
type PersistedAirdrop struct {
	Tasks   []PersistedTask `json:"tasks"`
	Claimed bool            `json:"claimed"`
}
