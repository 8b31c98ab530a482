// Package zones edits the per-zone pricing and demand configuration.
package zones

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/fernandocalderan/IEI-Inmobiliario/internal/apperr"
	"github.com/fernandocalderan/IEI-Inmobiliario/internal/models"
	"github.com/sirupsen/logrus"
)

type Backend interface {
	ListZones(ctx context.Context) ([]models.Zone, error)
	PatchZone(ctx context.Context, id string, patch models.ZonePatch) (*models.ZonePatchResult, error)
}

// Edit is the operator's raw input for one zone row; blank or nil fields are left untouched
type Edit struct {
	BasePerM2     string
	DemandLevel   string
	ZoneGroup     *string
	PricingPolicy *string
	PricingJSON   *string
	IsPremium     *bool
	IsActive      *bool
}

type Editor struct {
	backend Backend
	logger  *logrus.Logger
}

func NewEditor(backend Backend, logger *logrus.Logger) *Editor {
	if logger == nil {
		logger = logrus.New()
	}
	return &Editor{backend: backend, logger: logger}
}

// Load returns the zone collection
func (e *Editor) Load(ctx context.Context) ([]models.Zone, error) {
	zones, err := e.backend.ListZones(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load zones: %w", err)
	}
	return zones, nil
}

// Save validates edit, patches the zone and returns the reloaded collection.
// An invalid edit sends nothing.
func (e *Editor) Save(ctx context.Context, zoneID string, edit Edit) ([]models.Zone, error) {
	patch, err := BuildPatch(edit)
	if err != nil {
		return nil, err
	}

	result, err := e.backend.PatchZone(ctx, zoneID, patch)
	if err != nil {
		e.logger.WithError(err).WithField("zone_id", zoneID).Error("Failed to update zone")
		return nil, fmt.Errorf("failed to update zone %s: %w", zoneID, err)
	}
	e.logger.WithFields(logrus.Fields{"zone_id": zoneID, "zone_key": result.ZoneKey}).Info("Zone updated")
	return e.Load(ctx)
}

// BuildPatch converts an Edit into a validated ZonePatch
func BuildPatch(edit Edit) (models.ZonePatch, error) {
	var patch models.ZonePatch

	if raw := strings.TrimSpace(edit.BasePerM2); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
			return patch, apperr.Validation("base_per_m2", "base_per_m2 debe ser un número mayor que 0")
		}
		patch.BasePerM2 = &v
	}

	if raw := strings.ToLower(strings.TrimSpace(edit.DemandLevel)); raw != "" {
		if !validDemand(raw) {
			return patch, apperr.Validationf("demand_level", "demand_level debe ser uno de %s", strings.Join(models.DemandLevels, ", "))
		}
		patch.DemandLevel = &raw
	}

	if edit.PricingJSON != nil {
		doc, err := ParsePricingJSON(*edit.PricingJSON)
		if err != nil {
			return patch, err
		}
		patch.PricingJSON = &doc
	}

	patch.ZoneGroup = trimmed(edit.ZoneGroup)
	patch.PricingPolicy = trimmed(edit.PricingPolicy)
	patch.IsPremium = edit.IsPremium
	patch.IsActive = edit.IsActive

	if patch.Empty() {
		return patch, apperr.Validation("zone", "no hay cambios que guardar")
	}
	return patch, nil
}

func validDemand(level string) bool {
	for _, d := range models.DemandLevels {
		if level == d {
			return true
		}
	}
	return false
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}
