package entities

import "fmt"

// StageID identifies a production stage
type StageID int64

// ProductionStage is a named step of the production flow
type ProductionStage struct {
	ID    StageID
	Name  string
	Order int
}

// DisplayName returns the stage name, or a numbered placeholder when the name is blank
func (s *ProductionStage) DisplayName() string {
	if s == nil {
		return ""
	}
	if s.Name != "" {
		return s.Name
	}
	return UnnamedStage(s.ID)
}

// UnnamedStage is the label used for stages missing from the catalog
func UnnamedStage(id StageID) string {
	return fmt.Sprintf("Этап %d", id)
}
