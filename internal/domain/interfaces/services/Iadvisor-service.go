package Iservices

import (
	"context"

	"sokolink-advisor/internal/domain/dto"
	"sokolink-advisor/internal/domain/entities"
)

type IAdvisorService interface {
	ExecuteComplianceQuery(ctx context.Context, queryText string, sessionContext entities.ContextMap) (dto.AdvisoryResponse, error)
	HealthCheck(ctx context.Context) error
}
