package mqtt

import (
	"testing"

	"github.com/vlreinier/DFRobot-PH-2024/pkg/config"
)

func TestDiscoveryPayload(t *testing.T) {
	cfg := config.MQTTConfig{ClientID: "ph-probe"}
	p := discoveryPayload(cfg, "ph/state")
	if p[keyName] != "pH probe ph-probe" {
		t.Fatalf("name: %v", p[keyName])
	}
	if p[keyStateTopic] != "ph/state" || p[keyJSONAttributesTopic] != "ph/state" {
		t.Fatalf("topics: %v %v", p[keyStateTopic], p[keyJSONAttributesTopic])
	}
	if p[keyUnitOfMeasurement] != "pH" || p[keyDeviceClass] != "ph" {
		t.Fatalf("unit/class: %v %v", p[keyUnitOfMeasurement], p[keyDeviceClass])
	}
	if p[keyUniqueID] != "ph-probe" {
		t.Fatalf("unique id: %v", p[keyUniqueID])
	}
}

func TestDiscoveryPayloadOverrides(t *testing.T) {
	cfg := config.MQTTConfig{ClientID: "c", DiscoveryName: "Aquarium pH", DiscoveryUniqueID: "aquarium_ph_1"}
	p := discoveryPayload(cfg, "ph/state")
	if p[keyName] != "Aquarium pH" {
		t.Fatalf("name: %v", p[keyName])
	}
	if p[keyUniqueID] != "aquarium_ph_1" {
		t.Fatalf("unique id: %v", p[keyUniqueID])
	}
}
