package dashboard

// sensor describes one card slot in display order.
type sensor struct {
	key       string
	name      string
	unit      string
	threshold float64 // warning above this; zero disables
}

var sensors = []sensor{
	{key: "temperature", name: "Temperature", unit: "°C"},
	{key: "humidity", name: "Humidity", unit: "%"},
	{key: "co2", name: "CO2", unit: "ppm", threshold: 1000},
	{key: "pm25", name: "PM2.5", unit: "μg/m³", threshold: 35},
	{key: "pm10", name: "PM10", unit: "μg/m³", threshold: 35},
	{key: "tvoc", name: "TVOC", unit: "ppb"},
	{key: "battery", name: "Battery", unit: "%"},
}

// BuildCards extracts cards from the first element of the payload's sensorData array.
// Sensors without an object carrying "value" are skipped.
func BuildCards(data map[string]interface{}) []Card {
	samples, ok := data["sensorData"].([]interface{})
	if !ok || len(samples) == 0 {
		return nil
	}
	sample, ok := samples[0].(map[string]interface{})
	if !ok {
		return nil
	}

	var cards []Card
	for _, s := range sensors {
		obj, ok := sample[s.key].(map[string]interface{})
		if !ok {
			continue
		}
		value, ok := obj["value"]
		if !ok {
			continue
		}
		cards = append(cards, Card{
			Name:   s.name,
			Value:  formatValue(value),
			Unit:   s.unit,
			Status: statusText(obj["status"]),
			Class:  s.class(value),
		})
	}
	return cards
}

func (s sensor) class(value interface{}) string {
	if v, ok := toFloat(value); ok && s.threshold > 0 && v > s.threshold {
		return "warning"
	}
	return "good"
}

func statusText(status interface{}) string {
	if status == nil {
		return "Normal"
	}
	if v, ok := toFloat(status); ok && v == 0 {
		return "Normal"
	}
	return "Status: " + formatValue(status)
}
