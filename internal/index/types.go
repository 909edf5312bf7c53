package index

import "time"

// DocumentRow is one row of the documents table (spec §3.7).
type DocumentRow struct {
	ID            string
	ParentID      string
	Path          string
	Name          string
	Description   string
	TaskType      string
	IsClosed      bool
	Priority      *int
	CreatedAt     time.Time
	UpdatedAt     time.Time
	ClosedAt      *time.Time
	BodyHash      string
	IndexedAt     time.Time
	ContentLength int
	LinkCount     int
	BacklinkCount int
	ViewCount     int
	IsRoot        bool
	InTasksDir    bool
	InDocsDir     bool
	Skill         string
}

// LinkType enumerates the four edge kinds spec §3.3 recognizes.
type LinkType string

const (
	LinkBody           LinkType = "body"
	LinkBlockedBy      LinkType = "blocked_by"
	LinkBlocking       LinkType = "blocking"
	LinkDiscoveredFrom LinkType = "discovered_from"
)

// LinkRow is one row of the links table.
type LinkRow struct {
	SourceID string
	TargetID string
	Type     LinkType
	Position int
}

// State filters documents by open/closed per spec §4.3.
type State int

const (
	StateAny State = iota
	StateOpen
	StateClosed
)

// SortBy selects the ordering column for DocumentFilter.
type SortBy int

const (
	SortByPriority SortBy = iota
	SortByUpdatedAt
	SortByCreatedAt
	SortByName
)

// SortOrder is ascending or descending.
type SortOrder int

const (
	Ascending SortOrder = iota
	Descending
)

// DocumentFilter configures Store.Query/Count (spec §4.3).
type DocumentFilter struct {
	IncludeClosed bool
	State         State
	PathPrefix    string
	TaskType      string
	LabelsAll     []string
	LabelsAny     []string
	Limit         int
	SortBy        SortBy
	SortOrder     SortOrder
}
