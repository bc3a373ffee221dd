package calc

import (
	"context"
	"errors"
	"fmt"

	"ffigen/ffirt"
)

type Calculator struct {
	ffirt.Object
	total int32
}

type Status int32

const StatusOK Status = 0

func (s Status) IsOk() bool {
	return s == StatusOK
}

func NewCalculator(initial int32) *Calculator {
	return &Calculator{total: initial}
}

func NewCalculatorRemote(ctx context.Context, address string) (*Calculator, error) {
	if err := ffirt.Yield(ctx); err != nil {
		return nil, err
	}
	if address == "" {
		return nil, errors.New("no address given")
	}
	return &Calculator{}, nil
}

func (c *Calculator) Add(value int32) int32 {
	return c.total + value
}

func (c *Calculator) AddInPlace(target *int32, amount int32) bool {
	*target += amount
	return true
}

func (c *Calculator) Describe(prefix string) string {
	return fmt.Sprintf("%s%d", prefix, c.total)
}

func (c *Calculator) Nickname(fallback *string) *string {
	return fallback
}

func (c *Calculator) Divide(divisor int32) (int32, error) {
	if divisor == 0 {
		return 0, errors.New("division by zero")
	}
	return c.total / divisor, nil
}

func (c *Calculator) Reset() error {
	return errors.New("reset is not supported")
}

func (c *Calculator) Clear() {
	c.total = 0
}

func (c *Calculator) Status() Status {
	return StatusOK
}

func (c *Calculator) SlowAdd(ctx context.Context, value int32) (int32, error) {
	for i := 0; i < 3; i++ {
		if err := ffirt.Yield(ctx); err != nil {
			return 0, err
		}
	}
	return c.total + value, nil
}

func (c *Calculator) Snapshot(ctx context.Context) []byte {
	return []byte(fmt.Sprint(c.total))
}

func (c *Calculator) Settle(ctx context.Context) {}
