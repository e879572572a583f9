package models

// All lists every persisted entity in dependency order for auto-migration.
func All() []interface{} {
	return []interface{}{
		&User{},
		&School{},
		&UserProfile{},
		&Competition{},
		&Event{},
		&Season{},
		&ProblemSeverity{},
		&ProblemCategory{},
		&Problem{},
		&ProblemSet{},
		&ProblemInSet{},
		&Series{},
		&UserSolution{},
		&OrgSolution{},
		&ActivityLog{},
		&Post{},
		&Gallery{},
	}
}
