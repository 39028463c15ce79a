package config

import (
	"os"
	"strconv"
)

// ApplyEnv overlays PANNY_* environment variables on top of the loaded
// config. Unset or malformed variables leave the existing value alone.
func (c *Config) ApplyEnv() {
	if val := os.Getenv("PANNY_ADDR"); val != "" {
		c.Server.Addr = val
	}
	if val := os.Getenv("PANNY_DATA_DIR"); val != "" {
		c.Server.DataDir = val
	}
	if val := getEnvInt("PANNY_WATERING_WINDOW_DAYS"); val > 0 {
		c.Care.WateringCompletableWithinDays = val
	}
	if val := getEnvInt("PANNY_REPOTTING_WINDOW_DAYS"); val > 0 {
		c.Care.RepottingCompletableWithinDays = val
	}
	if val := getEnvInt("PANNY_OTP_TTL_MINUTES"); val > 0 {
		c.Auth.OTPTTLMinutes = val
	}
	if val := getEnvInt("PANNY_SESSION_TTL_HOURS"); val > 0 {
		c.Auth.SessionTTLHours = val
	}
	if val := os.Getenv("PANNY_PLANT_INFO_BASE_URL"); val != "" {
		c.PlantInfo.BaseURL = val
	}
	if val := os.Getenv("PANNY_PLANT_INFO_API_KEY"); val != "" {
		c.PlantInfo.APIKey = val
	}
	if val := getEnvInt("PANNY_PLANT_INFO_TIMEOUT_SECONDS"); val > 0 {
		c.PlantInfo.TimeoutSeconds = val
	}
}

func getEnvInt(key string) int {
	val := os.Getenv(key)
	if val == "" {
		return 0
	}
	num, err := strconv.Atoi(val)
	if err != nil {
		return 0
	}
	return num
}
