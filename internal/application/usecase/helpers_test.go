package usecase_test

import "github.com/jhoicas/stock-api/internal/domain/repository"

func repositoryFilter(limit int) repository.MovementFilter {
	return repository.MovementFilter{Limit: limit}
}
