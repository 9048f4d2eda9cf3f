package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/modoocon/modoocon/internal/clock"
	"github.com/modoocon/modoocon/internal/institution/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  domain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	repo  domain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("institution.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateInstitutionRequest) (domain.Institution, error) {
	nameKO := strings.TrimSpace(req.NameKO)
	nameEN := strings.TrimSpace(req.NameEN)
	if nameKO == "" && nameEN == "" {
		return domain.Institution{}, domain.ErrInvalidName
	}
	if nameKO == "" {
		nameKO = nameEN
	}
	if nameEN == "" {
		nameEN = nameKO
	}

	now := s.clock.Now()
	institution := domain.Institution{
		ID:        s.genID.Generate(),
		NameKO:    nameKO,
		NameEN:    nameEN,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Insert(ctx, s.db, &institution); err != nil {
		return domain.Institution{}, err
	}
	return institution, nil
}

func (s *Service) Update(ctx context.Context, req domain.UpdateInstitutionRequest) (domain.Institution, error) {
	id, err := s.parseID(req.ID)
	if err != nil {
		return domain.Institution{}, err
	}

	item, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return domain.Institution{}, err
	}
	if item == nil {
		return domain.Institution{}, domain.ErrNotFound
	}

	if nameKO := strings.TrimSpace(req.NameKO); nameKO != "" {
		item.NameKO = nameKO
	}
	if nameEN := strings.TrimSpace(req.NameEN); nameEN != "" {
		item.NameEN = nameEN
	}
	item.UpdatedAt = s.clock.Now()

	if err := s.repo.Update(ctx, s.db, item); err != nil {
		return domain.Institution{}, err
	}
	return *item, nil
}

func (s *Service) GetByID(ctx context.Context, rawID string) (domain.Institution, error) {
	id, err := s.parseID(rawID)
	if err != nil {
		return domain.Institution{}, err
	}

	item, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return domain.Institution{}, err
	}
	if item == nil {
		return domain.Institution{}, domain.ErrNotFound
	}
	return *item, nil
}

func (s *Service) Search(ctx context.Context, req domain.SearchInstitutionRequest) ([]domain.Institution, error) {
	limit := req.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	items, err := s.repo.Search(ctx, s.db, strings.TrimSpace(req.Prefix), limit)
	if err != nil {
		return nil, err
	}

	institutions := make([]domain.Institution, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		institutions = append(institutions, *item)
	}
	return institutions, nil
}

func (s *Service) parseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, domain.ErrInvalidID
	}
	return id, nil
}
