package message

import (
	"fmt"
	"sort"
	"strings"
)

// Service is the integer code identifying the physical quantity of a reading.
type Service int

// Ambient services.
const (
	ServiceTemperature    Service = 301 // ºC
	ServiceHumidity       Service = 302 // %
	ServiceLight          Service = 303 // lux
	ServiceAirQualityCO   Service = 306 // ppm
	ServiceAirQualityCO2  Service = 307 // ppm
	ServiceSoundIntensity Service = 308 // dB
	ServiceSoilHumidity   Service = 309 // %
)

// Energy services.
const (
	ServiceActivePower              Service = 401 // W
	ServiceActiveEnergy             Service = 402 // kWh
	ServiceInductiveReactivePower   Service = 403 // VAR
	ServiceInductiveReactiveEnergy  Service = 404 // kVARh
	ServiceVoltage                  Service = 405 // V
	ServiceCurrent                  Service = 406 // A
	ServiceCapacitiveReactivePower  Service = 407 // VAR
	ServiceCapacitiveReactiveEnergy Service = 408 // kVARh
	ServiceApparentPower            Service = 409 // VA
	ServiceApparentEnergy           Service = 410 // kVAh
	ServiceCosPhi                   Service = 411 // 0..1
	ServicePowerFactor              Service = 412 // -1..1
	ServiceNeutralCurrent           Service = 413 // A
	ServiceFrequency                Service = 414 // Hz
	ServiceGasVolume                Service = 419 // m³
	ServiceGasEnergy                Service = 420 // kWh
	ServiceTHDVoltage               Service = 422 // %
	ServiceTHDCurrent               Service = 423 // %
	ServiceAverageCurrent           Service = 426 // A
	ServiceFuelVolume               Service = 432 // m³
	ServiceFuelEnergy               Service = 433 // kWh
	ServiceExportedActiveEnergy     Service = 452 // kWh
	ServiceExportedInductiveEnergy  Service = 454 // kVARh
	ServiceExportedCapacitiveEnergy Service = 458 // kVARh
)

// Generic services.
const (
	ServiceBinaryInput  Service = 501
	ServicePulseCounter Service = 502
	ServiceGenericValue Service = 503
)

// Device services.
const (
	ServiceDeviceTemperature Service = 701 // ºC
)

// HVAC services.
const (
	ServiceThermalPower      Service = 801 // kW
	ServiceThermalEnergy     Service = 802 // kWh
	ServiceHotWaterVolume    Service = 803 // m³
	ServiceMassFlow          Service = 804 // m³/h
	ServiceInletTemperature  Service = 805 // ºC
	ServiceOutletTemperature Service = 806 // ºC
	ServiceCOPEER            Service = 807
	ServiceLowPressure       Service = 808 // bar
	ServiceHighPressure      Service = 809 // bar
)

// Water services.
const (
	ServiceWaterVolume Service = 901 // m³
	ServiceWaterFlow   Service = 902 // m³/h
)

type serviceInfo struct {
	name string
	unit string
}

var serviceTable = map[Service]serviceInfo{
	ServiceTemperature:              {"temperature", "ºC"},
	ServiceHumidity:                 {"humidity", "%"},
	ServiceLight:                    {"light", "lux"},
	ServiceAirQualityCO:             {"air_quality_co", "ppm"},
	ServiceAirQualityCO2:            {"air_quality_co2", "ppm"},
	ServiceSoundIntensity:           {"sound_intensity", "dB"},
	ServiceSoilHumidity:             {"soil_humidity", "%"},
	ServiceActivePower:              {"active_power", "W"},
	ServiceActiveEnergy:             {"active_energy", "kWh"},
	ServiceInductiveReactivePower:   {"inductive_reactive_power", "VAR"},
	ServiceInductiveReactiveEnergy:  {"inductive_reactive_energy", "kVARh"},
	ServiceVoltage:                  {"voltage", "V"},
	ServiceCurrent:                  {"current", "A"},
	ServiceCapacitiveReactivePower:  {"capacitive_reactive_power", "VAR"},
	ServiceCapacitiveReactiveEnergy: {"capacitive_reactive_energy", "kVARh"},
	ServiceApparentPower:            {"apparent_power", "VA"},
	ServiceApparentEnergy:           {"apparent_energy", "kVAh"},
	ServiceCosPhi:                   {"cos_phi", ""},
	ServicePowerFactor:              {"power_factor", ""},
	ServiceNeutralCurrent:           {"neutral_current", "A"},
	ServiceFrequency:                {"frequency", "Hz"},
	ServiceGasVolume:                {"gas_volume", "m³"},
	ServiceGasEnergy:                {"gas_energy", "kWh"},
	ServiceTHDVoltage:               {"thd_voltage", "%"},
	ServiceTHDCurrent:               {"thd_current", "%"},
	ServiceAverageCurrent:           {"average_current", "A"},
	ServiceFuelVolume:               {"fuel_volume", "m³"},
	ServiceFuelEnergy:               {"fuel_energy", "kWh"},
	ServiceExportedActiveEnergy:     {"exp_active_energy", "kWh"},
	ServiceExportedInductiveEnergy:  {"exp_inductive_r_energy", "kVARh"},
	ServiceExportedCapacitiveEnergy: {"exp_capacitive_r_energy", "kVARh"},
	ServiceBinaryInput:              {"binary_input", ""},
	ServicePulseCounter:             {"pulse_counter", ""},
	ServiceGenericValue:             {"generic_value", ""},
	ServiceDeviceTemperature:        {"device_temperature", "ºC"},
	ServiceThermalPower:             {"thermal_power", "kW"},
	ServiceThermalEnergy:            {"thermal_energy", "kWh"},
	ServiceHotWaterVolume:           {"hot_water_volume", "m³"},
	ServiceMassFlow:                 {"mass_flow", "m³/h"},
	ServiceInletTemperature:         {"inlet_temperature", "ºC"},
	ServiceOutletTemperature:        {"outlet_temperature", "ºC"},
	ServiceCOPEER:                   {"cop_eer", ""},
	ServiceLowPressure:              {"low_pressure", "bar"},
	ServiceHighPressure:             {"high_pressure", "bar"},
	ServiceWaterVolume:              {"water_volume", "m³"},
	ServiceWaterFlow:                {"water_flow", "m³/h"},
}

// Known reports whether s is one of the vendor service codes.
// Unknown codes are still valid on the wire.
func (s Service) Known() bool {
	_, ok := serviceTable[s]
	return ok
}

// Name returns the snake_case name of a known service, or "" otherwise.
func (s Service) Name() string {
	return serviceTable[s].name
}

// Unit returns the measurement unit of a known service. Dimensionless and
// unknown services return "".
func (s Service) Unit() string {
	return serviceTable[s].unit
}

// String returns the code followed by the name when the code is known.
func (s Service) String() string {
	if info, ok := serviceTable[s]; ok {
		return fmt.Sprintf("%d(%s)", int(s), info.name)
	}
	return fmt.Sprintf("%d", int(s))
}

// ParseService resolves a service from its name (case-insensitive, "-" or
// "_" separated) or from its numeric code.
func ParseService(v string) (Service, error) {
	key := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(v)), "-", "_")
	for code, info := range serviceTable {
		if info.name == key {
			return code, nil
		}
	}
	code, err := toInt64(v)
	if err != nil {
		return 0, fmt.Errorf("unknown service %q", v)
	}
	return Service(code), nil
}

// Services returns every known service ordered by code.
func Services() []Service {
	out := make([]Service, 0, len(serviceTable))
	for code := range serviceTable {
		out = append(out, code)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
