package repository

import (
	"fmt"

	"github.com/yukikurage/projects-crm/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// arenaSeed reports the highest value already stored in a namespace. Its
// sequence must rank values the same way the counter's sequence does.
type arenaSeed func(tx *gorm.DB) (lastCode string, sequence int64, err error)

// arenaNext computes the next value from the locked counter row.
type arenaNext func(counter models.CodeCounter) (string, error)

// issue advances the namespace counter inside tx and returns the new value.
// The counter row is created on first use, then locked FOR UPDATE so
// concurrent creators in the same namespace queue behind the transaction
// that holds it. Rows written behind the counter's back (imports, manual
// fixes) move it forward to the highest stored value before the next one is
// computed.
func issue(tx *gorm.DB, namespace string, seed arenaSeed, next arenaNext) (string, error) {
	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.CodeCounter{Namespace: namespace}).Error; err != nil {
		return "", fmt.Errorf("init counter %s: %w", namespace, err)
	}

	var counter models.CodeCounter
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("namespace = ?", namespace).
		First(&counter).Error; err != nil {
		return "", fmt.Errorf("lock counter %s: %w", namespace, err)
	}

	if seed != nil {
		last, seq, err := seed(tx)
		if err != nil {
			return "", fmt.Errorf("seed counter %s: %w", namespace, err)
		}
		if seq > counter.Sequence {
			counter.LastCode = last
			counter.Sequence = seq
		}
	}

	value, err := next(counter)
	if err != nil {
		return "", err
	}

	if err := tx.Model(&models.CodeCounter{}).
		Where("namespace = ?", namespace).
		Updates(map[string]interface{}{
			"last_code": value,
			"sequence":  counter.Sequence + 1,
		}).Error; err != nil {
		return "", fmt.Errorf("advance counter %s: %w", namespace, err)
	}

	return value, nil
}

// dropCounters removes arena rows for namespaces that can never be issued again.
func dropCounters(tx *gorm.DB, namespaces ...string) error {
	if len(namespaces) == 0 {
		return nil
	}
	return tx.Where("namespace IN ?", namespaces).Delete(&models.CodeCounter{}).Error
}
