package store

import (
	"database/sql"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/ayusman/pastelhands/internal/gesture"
	"github.com/ayusman/pastelhands/internal/overlay"
)

// ErrNotFound is returned when a requested resource does not exist.
var ErrNotFound = errors.New("not found")

// Setting keys for the overlay tuning.
const (
	KeyChangeThreshold = "overlay.change_threshold"
	KeyMinIntervalMs   = "overlay.min_interval_ms"
	KeyDotRadius       = "overlay.dot_radius"
	KeyLineWidth       = "overlay.line_width"
	KeyLineColor       = "overlay.line_color"
)

// OverlaySettings is the persisted overlay tuning.
type OverlaySettings struct {
	ChangeThreshold float64 `json:"change_threshold"`
	MinIntervalMs   int     `json:"min_interval_ms"`
	DotRadius       float64 `json:"dot_radius"`
	LineWidth       float64 `json:"line_width"`
	LineColor       string  `json:"line_color"`
}

// DefaultOverlaySettings mirrors the built-in gesture and drawing defaults.
func DefaultOverlaySettings() OverlaySettings {
	return OverlaySettings{
		ChangeThreshold: gesture.DefaultChangeThreshold,
		MinIntervalMs:   int(gesture.DefaultMinInterval / time.Millisecond),
		DotRadius:       overlay.DefaultDotRadius,
		LineWidth:       overlay.DefaultLineWidth,
		LineColor:       overlay.DefaultLineColor,
	}
}

// Validate checks ranges and the line color format.
func (o OverlaySettings) Validate() error {
	if o.ChangeThreshold <= 0 {
		return errors.Errorf("change_threshold must be positive, got %v", o.ChangeThreshold)
	}
	if o.MinIntervalMs < 0 {
		return errors.Errorf("min_interval_ms must not be negative, got %d", o.MinIntervalMs)
	}
	if o.DotRadius <= 0 || o.DotRadius > 100 {
		return errors.Errorf("dot_radius out of range: %v", o.DotRadius)
	}
	if o.LineWidth <= 0 || o.LineWidth > 50 {
		return errors.Errorf("line_width out of range: %v", o.LineWidth)
	}
	if !validHex(o.LineColor) {
		return errors.Errorf("line_color must be #RRGGBB, got %q", o.LineColor)
	}
	return nil
}

func validHex(s string) bool {
	if len(s) != 7 || s[0] != '#' {
		return false
	}
	_, err := strconv.ParseUint(s[1:], 16, 32)
	return err == nil
}

// Thresholds converts the settings to gesture thresholds.
func (o OverlaySettings) Thresholds() gesture.Thresholds {
	return gesture.Thresholds{
		ChangeThreshold: o.ChangeThreshold,
		MinInterval:     time.Duration(o.MinIntervalMs) * time.Millisecond,
	}
}

// Style converts the settings to an overlay style.
func (o OverlaySettings) Style() overlay.Style {
	return overlay.Style{
		DotRadius: o.DotRadius,
		LineWidth: o.LineWidth,
		LineColor: strings.ToUpper(o.LineColor),
	}
}

// SettingsRepository reads and writes the settings table.
type SettingsRepository struct {
	db *sql.DB
}

// Settings returns the settings repository for this store.
func (s *Store) Settings() *SettingsRepository {
	return &SettingsRepository{db: s.db}
}

// Get returns the raw value stored under key.
func (r *SettingsRepository) Get(key string) (string, error) {
	var value string
	err := r.db.QueryRow(`SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", err
	}
	return value, nil
}

// Set stores value under key, replacing any previous value.
func (r *SettingsRepository) Set(key, value string) error {
	_, err := r.db.Exec(
		`INSERT INTO settings (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now(),
	)
	return err
}

// All returns every stored setting.
func (r *SettingsRepository) All() (map[string]string, error) {
	rows, err := r.db.Query(`SELECT key, value FROM settings`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, err
		}
		out[k] = v
	}
	return out, rows.Err()
}

// Overlay loads the overlay settings. Keys that were never saved keep
// their defaults.
func (r *SettingsRepository) Overlay() (OverlaySettings, error) {
	o := DefaultOverlaySettings()

	all, err := r.All()
	if err != nil {
		return o, err
	}

	parseFloat := func(key string, dst *float64) error {
		v, ok := all[key]
		if !ok {
			return nil
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return errors.Wrapf(err, "setting %s", key)
		}
		*dst = f
		return nil
	}

	if err := parseFloat(KeyChangeThreshold, &o.ChangeThreshold); err != nil {
		return o, err
	}
	if err := parseFloat(KeyDotRadius, &o.DotRadius); err != nil {
		return o, err
	}
	if err := parseFloat(KeyLineWidth, &o.LineWidth); err != nil {
		return o, err
	}
	if v, ok := all[KeyMinIntervalMs]; ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return o, errors.Wrapf(err, "setting %s", KeyMinIntervalMs)
		}
		o.MinIntervalMs = n
	}
	if v, ok := all[KeyLineColor]; ok {
		o.LineColor = v
	}

	return o, nil
}

// SaveOverlay validates and stores every overlay setting in one transaction.
func (r *SettingsRepository) SaveOverlay(o OverlaySettings) error {
	if err := o.Validate(); err != nil {
		return err
	}

	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	values := map[string]string{
		KeyChangeThreshold: strconv.FormatFloat(o.ChangeThreshold, 'f', -1, 64),
		KeyMinIntervalMs:   strconv.Itoa(o.MinIntervalMs),
		KeyDotRadius:       strconv.FormatFloat(o.DotRadius, 'f', -1, 64),
		KeyLineWidth:       strconv.FormatFloat(o.LineWidth, 'f', -1, 64),
		KeyLineColor:       o.LineColor,
	}
	now := time.Now()
	for k, v := range values {
		if _, err := tx.Exec(
			`INSERT INTO settings (key, value, updated_at) VALUES (?, ?, ?)
			 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
			k, v, now,
		); err != nil {
			return err
		}
	}

	return tx.Commit()
}
