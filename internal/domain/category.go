package domain

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/DRSN-tech/catalog-categories/pkg/clock"
	"github.com/DRSN-tech/catalog-categories/pkg/e"
	"github.com/google/uuid"
)

const (
	nameProperty        = "Name"
	descriptionProperty = "Description"

	NameMinLength        = 3
	NameMaxLength        = 255
	DescriptionMaxLength = 10000
)

// Category описывает категорию каталога.
// Поля закрыты: изменить состояние можно только через методы, проверяющие инварианты.
type Category struct {
	id          uuid.UUID
	name        string
	description string
	isActive    bool
	createdAt   time.Time
}

type options struct {
	clock clock.Clock
	id    uuid.UUID
}

// Option настраивает создание категории.
type Option func(*options)

// WithClock задаёт источник времени для CreatedAt.
func WithClock(c clock.Clock) Option {
	return func(o *options) {
		o.clock = c
	}
}

// WithID задаёт заранее известный идентификатор.
func WithID(id uuid.UUID) Option {
	return func(o *options) {
		o.id = id
	}
}

// NewCategory создаёт активную категорию.
func NewCategory(name string, description *string, opts ...Option) (*Category, error) {
	return NewCategoryWithStatus(name, description, true, opts...)
}

// NewCategoryWithStatus создаёт категорию с явно заданным признаком активности.
// description == nil считается ошибкой валидации.
func NewCategoryWithStatus(name string, description *string, isActive bool, opts ...Option) (*Category, error) {
	o := options{clock: clock.System{}}
	for _, opt := range opts {
		opt(&o)
	}

	if err := validate(name, description); err != nil {
		return nil, err
	}

	id := o.id
	if id == uuid.Nil {
		id = uuid.New()
	}

	return &Category{
		id:          id,
		name:        name,
		description: *description,
		isActive:    isActive,
		createdAt:   o.clock.Now(),
	}, nil
}

// RestoreCategory восстанавливает категорию из хранилища.
// Инварианты проверяются так же, как при создании.
func RestoreCategory(id uuid.UUID, name string, description string, isActive bool, createdAt time.Time) (*Category, error) {
	if id == uuid.Nil {
		return nil, e.ErrInvalidCategoryID
	}

	if err := validate(name, &description); err != nil {
		return nil, err
	}

	return &Category{
		id:          id,
		name:        name,
		description: description,
		isActive:    isActive,
		createdAt:   createdAt,
	}, nil
}

func (c *Category) ID() uuid.UUID        { return c.id }
func (c *Category) Name() string         { return c.name }
func (c *Category) Description() string  { return c.description }
func (c *Category) IsActive() bool       { return c.isActive }
func (c *Category) CreatedAt() time.Time { return c.createdAt }

// Activate делает категорию активной.
func (c *Category) Activate() {
	c.isActive = true
}

// Deactivate делает категорию неактивной.
func (c *Category) Deactivate() {
	c.isActive = false
}

// Update меняет имя и, если description != nil, описание.
// При ошибке валидации категория остаётся без изменений.
func (c *Category) Update(name string, description *string) error {
	desc := c.description
	if description != nil {
		desc = *description
	}

	if err := validate(name, &desc); err != nil {
		return err
	}

	c.name = name
	c.description = desc
	return nil
}

// validate проверяет инварианты по порядку и возвращает первое нарушение.
func validate(name string, description *string) error {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return e.NewEntityValidationError(e.EmptyOrNullMessage(nameProperty))
	}

	nameLen := utf8.RuneCountInString(trimmed)
	if nameLen < NameMinLength {
		return e.NewEntityValidationError(e.MinLengthMessage(nameProperty, NameMinLength))
	}

	if nameLen > NameMaxLength {
		return e.NewEntityValidationError(e.MaxLengthMessage(nameProperty, NameMaxLength))
	}

	if description == nil {
		return e.NewEntityValidationError(e.ShouldNotBeNullMessage(descriptionProperty))
	}

	if utf8.RuneCountInString(*description) > DescriptionMaxLength {
		return e.NewEntityValidationError(e.MaxLengthMessage(descriptionProperty, DescriptionMaxLength))
	}

	return nil
}
