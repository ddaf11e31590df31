package mapper

import (
	"encoding/json"

	"mpersona-be/internal/entity"
	"mpersona-be/internal/model"

	"gorm.io/datatypes"
)

type FactMapper struct{}

func NewFactMapper() *FactMapper {
	return &FactMapper{}
}

func (m *FactMapper) ToEntity(f *model.Fact) *entity.Fact {
	if f == nil {
		return nil
	}
	return &entity.Fact{
		Id:                   f.Id,
		KnowledgeProfileUuid: f.KnowledgeProfileUuid,
		FileUuid:             f.FileUuid,
		Context:              f.Context,
		Fact:                 f.Fact,
		Keywords:             decodeStrings(f.Keywords),
		Questions:            decodeStrings(f.Questions),
		Status:               entity.FactStatus(f.Status),
		CreatedAt:            f.CreatedAt,
	}
}

func (m *FactMapper) ToModel(f *entity.Fact) *model.Fact {
	if f == nil {
		return nil
	}
	return &model.Fact{
		Id:                   f.Id,
		KnowledgeProfileUuid: f.KnowledgeProfileUuid,
		FileUuid:             f.FileUuid,
		Context:              f.Context,
		Fact:                 f.Fact,
		Keywords:             encodeStrings(f.Keywords),
		Questions:            encodeStrings(f.Questions),
		Status:               string(f.Status),
		CreatedAt:            f.CreatedAt,
	}
}

func (m *FactMapper) ToRankedEntities(rows []*model.RankedFact) []*entity.RankedFact {
	out := make([]*entity.RankedFact, 0, len(rows))
	for _, row := range rows {
		out = append(out, &entity.RankedFact{
			Fact:  *m.ToEntity(&row.Fact),
			Score: row.Score,
		})
	}
	return out
}

func decodeStrings(raw datatypes.JSON) []string {
	if len(raw) == 0 {
		return nil
	}
	var values []string
	if err := json.Unmarshal(raw, &values); err != nil {
		return nil
	}
	return values
}

func encodeStrings(values []string) datatypes.JSON {
	if len(values) == 0 {
		return datatypes.JSON("[]")
	}
	raw, err := json.Marshal(values)
	if err != nil {
		return datatypes.JSON("[]")
	}
	return datatypes.JSON(raw)
}
