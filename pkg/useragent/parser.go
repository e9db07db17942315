package useragent

import (
	"fmt"
	"os"
	"strings"

	"github.com/ua-parser/uap-go/uaparser"
	"go.uber.org/zap"
)

// Device types reported in DeviceInfo.DeviceType.
const (
	DeviceMobile  = "mobile"
	DeviceTablet  = "tablet"
	DeviceDesktop = "desktop"
	DeviceBot     = "bot"
	DeviceUnknown = "unknown"
)

// Parser wraps the uap-core parser with coarse device type detection
type Parser struct {
	parser *uaparser.Parser
	log    *zap.Logger
}

// DeviceInfo represents parsed device information
type DeviceInfo struct {
	DeviceType string // mobile, desktop, tablet, bot, unknown
	Browser    string // Chrome, Firefox, Safari, etc.
	OS         string // Windows, iOS, Android, etc.
}

// NewParser loads regexes from regexFilePath, falling back to the
// definitions compiled into uap-go when the file does not exist.
func NewParser(regexFilePath string, log *zap.Logger) (*Parser, error) {
	if regexFilePath != "" {
		regexBytes, err := os.ReadFile(regexFilePath)
		switch {
		case err == nil:
			parser, err := uaparser.NewFromBytes(regexBytes)
			if err != nil {
				return nil, fmt.Errorf("failed to create User-Agent parser: %w", err)
			}
			log.Info("User-Agent parser initialized", zap.String("regexes_file", regexFilePath))
			return &Parser{parser: parser, log: log}, nil
		case !os.IsNotExist(err):
			return nil, fmt.Errorf("failed to read regexes file: %w", err)
		}
	}

	log.Info("User-Agent parser using built-in regexes")
	return &Parser{parser: uaparser.NewFromSaved(), log: log}, nil
}

// Parse parses a User-Agent string into DeviceInfo
func (p *Parser) Parse(userAgent string) DeviceInfo {
	if userAgent == "" {
		return DeviceInfo{
			DeviceType: DeviceUnknown,
			Browser:    DeviceUnknown,
			OS:         DeviceUnknown,
		}
	}

	client := p.parser.Parse(userAgent)

	info := DeviceInfo{
		Browser:    orUnknown(client.UserAgent.Family),
		OS:         orUnknown(client.Os.Family),
		DeviceType: determineDeviceType(client, userAgent),
	}

	p.log.Debug("parsed User-Agent",
		zap.String("device_type", info.DeviceType),
		zap.String("browser", info.Browser),
		zap.String("os", info.OS),
	)

	return info
}

// determineDeviceType checks bots first, then the device family, then the OS
func determineDeviceType(client *uaparser.Client, userAgent string) string {
	if isBot(client.UserAgent.Family, userAgent) {
		return DeviceBot
	}

	deviceFamily := client.Device.Family
	if deviceFamily != "" && deviceFamily != "Other" {
		if containsAny(deviceFamily, "iPad", "Tablet", "Kindle", "Surface") {
			return DeviceTablet
		}
		if containsAny(deviceFamily, "iPhone", "Android", "BlackBerry", "Windows Phone", "Mobile", "Phone") {
			return DeviceMobile
		}
	}

	osFamily := client.Os.Family
	if containsAny(osFamily, "iOS", "Android", "Windows Phone", "BlackBerry OS", "Firefox OS", "Sailfish OS") {
		if isTabletOS(osFamily, userAgent) {
			return DeviceTablet
		}
		return DeviceMobile
	}

	if containsAny(osFamily, "Windows", "Mac OS X", "macOS", "Linux", "Ubuntu", "Chrome OS", "FreeBSD", "OpenBSD", "NetBSD") {
		return DeviceDesktop
	}

	return DeviceUnknown
}

func isBot(family, userAgent string) bool {
	indicators := []string{
		"Googlebot", "Bingbot", "Slurp", "DuckDuckBot", "Baiduspider",
		"YandexBot", "facebookexternalhit", "Twitterbot", "LinkedInBot",
		"WhatsApp", "Telegram", "SkypeUriPreview", "bot", "crawler",
		"spider", "scraper",
	}
	return containsAny(family, indicators...) || containsAny(userAgent, indicators...)
}

// isTabletOS distinguishes iPad from iPhone and Android tablets from phones
func isTabletOS(osFamily, userAgent string) bool {
	if containsAny(osFamily, "iOS") {
		return containsAny(userAgent, "iPad")
	}
	if containsAny(osFamily, "Android") {
		// Android tablets typically don't have "Mobile" in User-Agent
		return !containsAny(userAgent, "Mobile")
	}
	return false
}

// containsAny is a case-insensitive substring check against each candidate
func containsAny(s string, candidates ...string) bool {
	if s == "" {
		return false
	}
	lower := strings.ToLower(s)
	for _, c := range candidates {
		if c != "" && strings.Contains(lower, strings.ToLower(c)) {
			return true
		}
	}
	return false
}

func orUnknown(s string) string {
	if s == "" || s == "Other" {
		return DeviceUnknown
	}
	return s
}
