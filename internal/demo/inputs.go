package demo

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/organization-ai-projects/simcore/internal/arena"
	"github.com/organization-ai-projects/simcore/internal/core"
)

// Input kinds understood by the colony.
const (
	KindImmigrant core.EventKind = "immigrant"
	KindDelivery  core.EventKind = "delivery"
	KindExile     core.EventKind = "exile"
)

// ErrBadPayload is returned by a system that receives an input it cannot decode.
var ErrBadPayload = errors.New("bad input payload")

type immigrant struct {
	Name string `json:"name"`
	Age  int    `json:"age"`
}

type delivery struct {
	Food int64 `json:"food"`
}

type exile struct {
	ID uint64 `json:"id"`
}

// Immigrant encodes an immigrant input for the immigration system.
func Immigrant(name string, age int) []byte {
	return mustEncode(immigrant{Name: name, Age: age})
}

// Delivery encodes a food delivery for the harvest system.
func Delivery(food int64) []byte {
	return mustEncode(delivery{Food: food})
}

// Exile encodes an exile order for the aging system.
func Exile(id arena.EntityID) []byte {
	return mustEncode(exile{ID: uint64(id)})
}

func mustEncode(v any) []byte {
	data, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return data
}

func decode(kind core.EventKind, payload []byte, v any) error {
	if err := json.Unmarshal(payload, v); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrBadPayload, kind, err)
	}
	return nil
}

func (im immigrant) validate() error {
	if im.Name == "" {
		return fmt.Errorf("%w: immigrant without a name", ErrBadPayload)
	}
	if im.Age < 0 {
		return fmt.Errorf("%w: immigrant age %d", ErrBadPayload, im.Age)
	}
	return nil
}
