package models

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// FeatureCount is the number of components in a FeatureVector
const FeatureCount = 7

// FeatureNames lists the FeatureVector components in Values() order
var FeatureNames = [FeatureCount]string{
	"blockchain_size",
	"hash_rate",
	"difficulty",
	"transaction_volume",
	"median_confirmation_time",
	"avg_block_size",
	"unique_transactions",
}

// ErrInvalidFeature is returned for negative, NaN or infinite components
var ErrInvalidFeature = errors.New("invalid feature value")

// FeatureVector describes one blockchain network snapshot
type FeatureVector struct {
	BlockchainSize         float64 `json:"blockchain_size"`
	HashRate               float64 `json:"hash_rate"`
	Difficulty             float64 `json:"difficulty"`
	TransactionVolume      float64 `json:"transaction_volume"`
	MedianConfirmationTime float64 `json:"median_confirmation_time"`
	AvgBlockSize           float64 `json:"avg_block_size"`
	UniqueTransactions     float64 `json:"unique_transactions"`
}

// Values returns the components in the fixed FeatureNames order
func (f FeatureVector) Values() []float64 {
	return []float64{
		f.BlockchainSize,
		f.HashRate,
		f.Difficulty,
		f.TransactionVolume,
		f.MedianConfirmationTime,
		f.AvgBlockSize,
		f.UniqueTransactions,
	}
}

// FeatureVectorFromValues is the inverse of Values
func FeatureVectorFromValues(v []float64) (FeatureVector, error) {
	if len(v) != FeatureCount {
		return FeatureVector{}, fmt.Errorf("expected %d values, got %d", FeatureCount, len(v))
	}
	return FeatureVector{
		BlockchainSize:         v[0],
		HashRate:               v[1],
		Difficulty:             v[2],
		TransactionVolume:      v[3],
		MedianConfirmationTime: v[4],
		AvgBlockSize:           v[5],
		UniqueTransactions:     v[6],
	}, nil
}

// Validate checks that every component is a finite non-negative number
func (f FeatureVector) Validate() error {
	for i, v := range f.Values() {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return fmt.Errorf("%w: %s=%v", ErrInvalidFeature, FeatureNames[i], v)
		}
	}
	return nil
}

// AttackType is the rule-based category assigned to a flagged vector
type AttackType string

const (
	AttackDDoS           AttackType = "DDoS Attack"
	AttackDoubleSpending AttackType = "Double Spending"
	Attack51Percent      AttackType = "51% Vulnerability"
	AttackUnknown        AttackType = "Unknown"
)

// AttackTypes lists the known categories in tie-break order, followed by Unknown
var AttackTypes = []AttackType{AttackDDoS, AttackDoubleSpending, Attack51Percent, AttackUnknown}

// RiskLevel buckets anomaly confidence
type RiskLevel string

const (
	RiskNone   RiskLevel = "NONE"
	RiskLow    RiskLevel = "LOW"
	RiskMedium RiskLevel = "MEDIUM"
	RiskHigh   RiskLevel = "HIGH"
)

// AnomalyResult is produced once per input FeatureVector
type AnomalyResult struct {
	IsAnomaly    bool          `json:"is_anomaly"`
	Confidence   float64       `json:"confidence"` // 0-100
	Distance     float64       `json:"distance"`
	AttackType   AttackType    `json:"attack_type,omitempty"`
	ClusterLabel *int          `json:"cluster_label,omitempty"`
	Features     FeatureVector `json:"features"`
	Timestamp    time.Time     `json:"timestamp"`
}

// Risk maps confidence onto a risk bucket. Non-anomalies carry no risk.
func (r AnomalyResult) Risk() RiskLevel {
	switch {
	case !r.IsAnomaly:
		return RiskNone
	case r.Confidence > 75:
		return RiskHigh
	case r.Confidence > 50:
		return RiskMedium
	default:
		return RiskLow
	}
}

// BatchSummary aggregates the results of one detection pass
type BatchSummary struct {
	Processed     int                `json:"processed"`
	Anomalies     int                `json:"anomalies"`
	DetectionRate float64            `json:"detection_rate"` // percent of processed
	AvgConfidence float64            `json:"avg_confidence"` // over anomalies only
	MaxConfidence float64            `json:"max_confidence"`
	ByAttack      map[AttackType]int `json:"by_attack"`
	ByRisk        map[RiskLevel]int  `json:"by_risk"`
	ByCluster     map[int]int        `json:"by_cluster,omitempty"`
}

// FeatureComparison holds mean raw features of anomalous and normal vectors
type FeatureComparison struct {
	Feature      string  `json:"feature"`
	NormalMean   float64 `json:"normal_mean"`
	AnomalyMean  float64 `json:"anomaly_mean"`
	RelativeDiff float64 `json:"relative_diff"` // (anomaly-normal)/normal, 0 when normal mean is 0
}

// LabeledVector pairs a FeatureVector with its ground-truth attack, empty for normal traffic
type LabeledVector struct {
	Features FeatureVector
	Label    AttackType
}
