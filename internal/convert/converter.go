package convert

import (
	"fmt"
	"sort"

	"github.com/steveyegge/airbridge/internal/schema"
)

// Func runs one conversion rule on a raw value.
type Func func(value any) (any, error)

// Override replaces the built-in rule for one destination field. def runs
// the built-in rule for that same field.
type Override func(value any, field schema.Field, def Func) (any, error)

// Strategy converts a raw value for one destination field type.
type Strategy interface {
	Convert(value any, field schema.Field) (any, error)
}

// StrategyFunc adapts a plain function to Strategy.
type StrategyFunc func(value any, field schema.Field) (any, error)

// Convert implements Strategy.
func (f StrategyFunc) Convert(value any, field schema.Field) (any, error) {
	return f(value, field)
}

// Converter dispatches values to the strategy registered for the
// destination field type.
type Converter struct {
	strategies map[schema.FieldType]Strategy
}

// New returns a Converter with the built-in rules registered.
func New() *Converter {
	c := &Converter{strategies: make(map[schema.FieldType]Strategy)}
	c.Register(schema.TypeText, StrategyFunc(toText))
	c.Register(schema.TypeLongText, StrategyFunc(toLongText))
	c.Register(schema.TypeURL, StrategyFunc(toSingleString))
	c.Register(schema.TypeEmail, StrategyFunc(toSingleString))
	c.Register(schema.TypePhoneNumber, StrategyFunc(toSingleString))
	c.Register(schema.TypeNumber, StrategyFunc(toNumber))
	c.Register(schema.TypeRating, StrategyFunc(toRating))
	c.Register(schema.TypeBoolean, StrategyFunc(toBoolean))
	c.Register(schema.TypeDate, StrategyFunc(toDate))
	c.Register(schema.TypeSingleSelect, StrategyFunc(toSingleSelect))
	c.Register(schema.TypeMultipleSelect, StrategyFunc(toMultipleSelect))
	return c
}

// Register sets the strategy for a field type. Link and file types are
// rejected because their values are written after the create pass.
func (c *Converter) Register(t schema.FieldType, s Strategy) {
	if t.IsDeferred() {
		panic(fmt.Sprintf("convert: %s fields cannot have a value strategy", t))
	}
	c.strategies[t] = s
}

// Supports reports whether a strategy is registered for t.
func (c *Converter) Supports(t schema.FieldType) bool {
	_, ok := c.strategies[t]
	return ok
}

// Types lists the registered field types in sorted order.
func (c *Converter) Types() []schema.FieldType {
	types := make([]schema.FieldType, 0, len(c.strategies))
	for t := range c.strategies {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}

// Convert runs the built-in rule for field on value.
func (c *Converter) Convert(field schema.Field, value any) (any, error) {
	s, ok := c.strategies[field.Type]
	if !ok {
		return nil, fmt.Errorf("%w: %s for %s", ErrUnsupportedFieldType, field.Type, field.Key())
	}
	return s.Convert(value, field)
}

// Default returns the built-in rule bound to field.
func (c *Converter) Default(field schema.Field) Func {
	return func(value any) (any, error) {
		return c.Convert(field, value)
	}
}

// Apply converts value for field, routing through override when it is
// not nil.
func (c *Converter) Apply(field schema.Field, value any, override Override) (any, error) {
	if !c.Supports(field.Type) {
		return nil, fmt.Errorf("%w: %s for %s", ErrUnsupportedFieldType, field.Type, field.Key())
	}
	if override == nil {
		return c.Convert(field, value)
	}
	return override(value, field, c.Default(field))
}
