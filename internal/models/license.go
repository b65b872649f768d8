package models

import "time"

// License defines a certificate type in the catalog.
type License struct {
	ID               string    `db:"id" json:"id"`
	Name             string    `db:"name" json:"name"`
	Category         string    `db:"category" json:"category"`
	Level            int       `db:"level" json:"level"`
	LevelDescription string    `db:"level_description" json:"level_description,omitempty"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`
}

// EffectiveLevel returns the license level treating an unset level as 1.
func (l License) EffectiveLevel() int {
	if l.Level < 1 {
		return 1
	}
	return l.Level
}

// LicenseFilter captures filtering criteria for listing the catalog.
type LicenseFilter struct {
	Category  string
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// PrerequisiteEdge is a directed requirement: holding LicenseID requires
// holding a valid PrerequisiteID first.
type PrerequisiteEdge struct {
	LicenseID      string    `db:"license_id" json:"license_id"`
	PrerequisiteID string    `db:"prerequisite_id" json:"prerequisite_id"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

// PrerequisiteGraph is the prerequisite relation keyed by license id.
type PrerequisiteGraph map[string][]string

// BuildPrerequisiteGraph folds an edge list into an adjacency map.
func BuildPrerequisiteGraph(edges []PrerequisiteEdge) PrerequisiteGraph {
	graph := make(PrerequisiteGraph, len(edges))
	for _, edge := range edges {
		graph[edge.LicenseID] = append(graph[edge.LicenseID], edge.PrerequisiteID)
	}
	return graph
}

// PrerequisitesOf returns the direct prerequisites for a license.
func (g PrerequisiteGraph) PrerequisitesOf(licenseID string) []string {
	if g == nil {
		return nil
	}
	return g[licenseID]
}

// WouldCycle reports whether adding edge (licenseID -> prerequisiteID) closes
// a cycle, i.e. licenseID is already reachable from prerequisiteID.
func (g PrerequisiteGraph) WouldCycle(licenseID, prerequisiteID string) bool {
	if licenseID == prerequisiteID {
		return true
	}
	visited := map[string]bool{}
	stack := []string{prerequisiteID}
	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if current == licenseID {
			return true
		}
		if visited[current] {
			continue
		}
		visited[current] = true
		stack = append(stack, g[current]...)
	}
	return false
}
