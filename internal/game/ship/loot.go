package ship

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/cory-johannsen/shipsim/internal/game/dice"
)

// ItemDrop is one entry of a loot table.
type ItemDrop struct {
	ItemID string  `yaml:"item"`
	Chance float64 `yaml:"chance"`
	MinQty int     `yaml:"min_qty"`
	MaxQty int     `yaml:"max_qty"`
}

// LootTable lists the items a defeated ship may yield.
type LootTable struct {
	Items []ItemDrop `yaml:"items"`
}

// Validate checks that the loot table satisfies its invariants.
//
// Precondition: lt must not be nil.
// Postcondition: Returns nil iff every item constraint holds; an empty table is valid.
func (lt *LootTable) Validate() error {
	for i, item := range lt.Items {
		if item.ItemID == "" {
			return fmt.Errorf("loot table: item[%d] must have a non-empty item id", i)
		}
		if item.Chance <= 0 || item.Chance > 1.0 {
			return fmt.Errorf("loot table: item[%d] chance must be in (0, 1.0], got %f", i, item.Chance)
		}
		if item.MinQty < 1 {
			return fmt.Errorf("loot table: item[%d] min_qty must be >= 1, got %d", i, item.MinQty)
		}
		if item.MinQty > item.MaxQty {
			return fmt.Errorf("loot table: item[%d] min_qty (%d) must be <= max_qty (%d)", i, item.MinQty, item.MaxQty)
		}
	}
	return nil
}

// LootItem is one salvaged item instance.
type LootItem struct {
	ItemDefID  string
	InstanceID string
	Quantity   int
}

// GenerateLoot rolls every entry of lt against src.
//
// Precondition: lt must have passed Validate().
// Postcondition: each returned Quantity is in [MinQty, MaxQty] and each
// InstanceID is a fresh UUID.
func GenerateLoot(lt LootTable, src dice.Source) []LootItem {
	var items []LootItem
	for _, item := range lt.Items {
		if !dice.Chance(src, item.Chance) {
			continue
		}
		qty := item.MinQty
		if spread := item.MaxQty - item.MinQty; spread > 0 {
			qty += src.Intn(spread + 1)
		}
		items = append(items, LootItem{
			ItemDefID:  item.ItemID,
			InstanceID: uuid.New().String(),
			Quantity:   qty,
		})
	}
	return items
}
