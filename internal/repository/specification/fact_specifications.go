package specification

import "gorm.io/gorm"

// InKnowledgeProfiles restricts facts to the given profiles. An empty list matches nothing.
type InKnowledgeProfiles struct {
	UUIDs []string
}

func (s InKnowledgeProfiles) Apply(db *gorm.DB) *gorm.DB {
	if len(s.UUIDs) == 0 {
		return db.Where("1 = 0")
	}
	return db.Where("facts.knowledge_profile_uuid IN ?", s.UUIDs)
}

type ActiveFacts struct{}

func (s ActiveFacts) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("facts.status = ?", "active")
}
