package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"time"

	log "github.com/sirupsen/logrus"
)

// Vehicle is the registration payload of the fleet API.
type Vehicle struct {
	Plate    string  `json:"plate"`
	Make     string  `json:"make"`
	Model    string  `json:"model"`
	Type     string  `json:"type"`
	Area     string  `json:"area"`
	Year     int     `json:"year"`
	Status   string  `json:"status"`
	Odometer float64 `json:"odometer"`
}

// ServiceEntry is one back-dated service log entry.
type ServiceEntry struct {
	Date        string  `json:"date"`
	Odometer    float64 `json:"odometer"`
	ServiceType string  `json:"service_type"`
	Workshop    string  `json:"workshop"`
	Cost        float64 `json:"cost"`
	Description string  `json:"description,omitempty"`
}

var catalog = map[string][][2]string{
	"van":   {{"Ford", "Transit"}, {"Fiat", "Ducato"}, {"Renault", "Master"}, {"Mercedes", "Sprinter"}},
	"truck": {{"Iveco", "Daily"}, {"Volvo", "FL"}, {"MAN", "TGL"}},
	"car":   {{"Toyota", "Corolla"}, {"Volkswagen", "Golf"}, {"Fiat", "Tipo"}, {"Skoda", "Octavia"}},
}

var vehicleTypes = []string{"van", "truck", "car"}

var areas = []string{"North", "South", "East", "West", "Central"}

var workshops = []string{"Main Depot", "Autofficina Rossi", "QuickFix", "Dealer Service"}

// base cost in USD per service type
var serviceCosts = map[string]float64{
	"oil":        90,
	"brakes":     260,
	"tires":      420,
	"inspection": 150,
	"general":    200,
}

var serviceTypes = []string{"oil", "brakes", "tires", "inspection", "general"}

// kilometers per day by vehicle type
var usageRates = map[string][2]float64{
	"van":   {40, 140},
	"truck": {80, 220},
	"car":   {15, 80},
}

const (
	distanceInterval = 5000.0 // km between services
	timeInterval     = 180    // days between services
)

var authToken string

var httpClient = &http.Client{Timeout: 10 * time.Second}

func authorizedPost(url string, contentType string, body *bytes.Buffer) (*http.Response, error) {
	req, err := http.NewRequest(http.MethodPost, url, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", contentType)
	if authToken != "" {
		req.Header.Set("Authorization", "Bearer "+authToken)
	}
	return httpClient.Do(req)
}

// login exchanges credentials for a bearer token.
func login(apiURL, username, password string) (string, error) {
	data, err := json.Marshal(map[string]string{"username": username, "password": password})
	if err != nil {
		return "", err
	}
	resp, err := authorizedPost(apiURL+"/auth/login", "application/json", bytes.NewBuffer(data))
	if err != nil {
		return "", fmt.Errorf("failed to log in: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("login failed with status: %d", resp.StatusCode)
	}
	var result struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to decode login response: %w", err)
	}
	if result.Token == "" {
		return "", errors.New("login response has no token")
	}
	return result.Token, nil
}

func randomVehicle(r *rand.Rand, i int) Vehicle {
	vtype := vehicleTypes[r.Intn(len(vehicleTypes))]
	choices := catalog[vtype]
	pick := choices[r.Intn(len(choices))]
	return Vehicle{
		Plate:  fmt.Sprintf("FL%03d%c%c", i+1, 'A'+rune(r.Intn(26)), 'A'+rune(r.Intn(26))),
		Make:   pick[0],
		Model:  pick[1],
		Type:   vtype,
		Area:   areas[r.Intn(len(areas))],
		Year:   2012 + r.Intn(12),
		Status: "IN_SERVICE",
	}
}

func serviceCost(r *rand.Rand, serviceType string, odometer float64, year int) float64 {
	cost := serviceCosts[serviceType] + 0.002*odometer + 6*float64(2024-year)
	cost += r.NormFloat64() * 25
	return math.Max(30, math.Round(cost*100)/100)
}

// planHistory lays out services over the months before today at a steady
// daily usage, and sets the vehicle's current odometer.
func planHistory(r *rand.Rand, v *Vehicle, months int, today time.Time) []ServiceEntry {
	bounds := usageRates[v.Type]
	rate := bounds[0] + r.Float64()*(bounds[1]-bounds[0])
	start := today.AddDate(0, -months, 0)
	startOdometer := 5000 + r.Float64()*60000

	interval := math.Min(math.Ceil(distanceInterval/rate), timeInterval)
	var entries []ServiceEntry
	day := start
	for {
		jitter := 0.85 + r.Float64()*0.3
		day = day.AddDate(0, 0, int(math.Max(1, math.Round(interval*jitter))))
		if !day.Before(today) {
			break
		}
		odometer := math.Round(startOdometer + rate*day.Sub(start).Hours()/24)
		serviceType := serviceTypes[r.Intn(len(serviceTypes))]
		entries = append(entries, ServiceEntry{
			Date:        day.Format("2006-01-02"),
			Odometer:    odometer,
			ServiceType: serviceType,
			Workshop:    workshops[r.Intn(len(workshops))],
			Cost:        serviceCost(r, serviceType, odometer, v.Year),
			Description: "scheduled " + serviceType,
		})
	}
	v.Odometer = math.Round(startOdometer + rate*today.Sub(start).Hours()/24)
	return entries
}

var errVehicleExists = errors.New("vehicle already registered")

func createVehicle(apiURL string, v Vehicle) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal vehicle: %w", err)
	}
	resp, err := authorizedPost(apiURL+"/vehicles", "application/json", bytes.NewBuffer(data))
	if err != nil {
		return fmt.Errorf("failed to create vehicle: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusCreated:
	case http.StatusConflict:
		return errVehicleExists
	default:
		return fmt.Errorf("vehicle creation failed with status: %d", resp.StatusCode)
	}

	log.WithFields(log.Fields{
		"plate": v.Plate,
		"type":  v.Type,
		"make":  v.Make,
		"model": v.Model,
	}).Info("Created vehicle")
	return nil
}

func recordService(apiURL, plate string, entry ServiceEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal service: %w", err)
	}
	resp, err := authorizedPost(apiURL+"/vehicles/"+url.PathEscape(plate)+"/services", "application/json", bytes.NewBuffer(data))
	if err != nil {
		return fmt.Errorf("failed to record service: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("service recording failed with status: %d", resp.StatusCode)
	}
	return nil
}

// seed registers fleetSize vehicles and their history, returning how many
// vehicles and services were written.
func seed(apiURL string, r *rand.Rand, fleetSize, months int, today time.Time) (int, int) {
	var vehicles, services int
	for i := 0; i < fleetSize; i++ {
		v := randomVehicle(r, i)
		history := planHistory(r, &v, months, today)
		if err := createVehicle(apiURL, v); err != nil {
			if errors.Is(err, errVehicleExists) {
				log.WithField("plate", v.Plate).Warn("Vehicle already registered, skipping")
				continue
			}
			log.WithError(err).WithField("plate", v.Plate).Error("Failed to create vehicle")
			continue
		}
		vehicles++
		for _, entry := range history {
			if err := recordService(apiURL, v.Plate, entry); err != nil {
				log.WithError(err).WithFields(log.Fields{"plate": v.Plate, "date": entry.Date}).Error("Failed to record service")
				continue
			}
			services++
		}
		log.WithFields(log.Fields{"plate": v.Plate, "services": len(history), "odometer": v.Odometer}).Debug("Seeded vehicle history")
	}
	return vehicles, services
}

func intEnv(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil && n >= 1 {
			return n
		}
	}
	return fallback
}

func main() {
	// Optional JWT for protected API
	authToken = os.Getenv("SIM_AUTH_TOKEN")

	apiURL := os.Getenv("API_BASE_URL")
	if apiURL == "" {
		apiURL = "http://localhost:8080/api"
	}

	if authToken == "" && os.Getenv("SIM_USERNAME") != "" {
		token, err := login(apiURL, os.Getenv("SIM_USERNAME"), os.Getenv("SIM_PASSWORD"))
		if err != nil {
			log.WithError(err).Fatal("Failed to authenticate")
		}
		authToken = token
	}

	fleetSize := intEnv("FLEET_SIZE", 10)
	months := intEnv("SIM_MONTHS", 18)
	seedValue := time.Now().UnixNano()
	if v := os.Getenv("SIM_SEED"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			seedValue = n
		}
	}

	log.WithFields(log.Fields{
		"fleet_size": fleetSize,
		"api_url":    apiURL,
		"months":     months,
		"seed":       seedValue,
	}).Info("Seeding fleet history")

	today := time.Now().UTC().Truncate(24 * time.Hour)
	vehicles, services := seed(apiURL, rand.New(rand.NewSource(seedValue)), fleetSize, months, today)
	if vehicles == 0 {
		log.Error("No vehicles created. Ensure SIM_AUTH_TOKEN is valid and API is reachable.")
		os.Exit(1)
	}
	log.WithFields(log.Fields{
		"vehicles": vehicles,
		"services": services,
	}).Info("Fleet history seeded")
}
