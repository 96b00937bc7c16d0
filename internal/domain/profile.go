package domain

import (
	"strings"
	"time"
)

// ClientRuntime is a coarse classification of the requesting client. Polling
// and grace tolerances differ by runtime: in-app browsers suspend timers
// aggressively, mobile networks flap more than desktop ones.
type ClientRuntime string

const (
	RuntimeDesktop      ClientRuntime = "desktop"
	RuntimeMobile       ClientRuntime = "mobile"
	RuntimeInAppBrowser ClientRuntime = "in_app_browser"
)

// ClientProfile carries the runtime-dependent poll and grace tolerances.
type ClientProfile struct {
	Runtime      ClientRuntime
	PollInterval time.Duration
	GraceWindow  time.Duration
}

var profiles = map[ClientRuntime]ClientProfile{
	RuntimeDesktop:      {Runtime: RuntimeDesktop, PollInterval: 30 * time.Second, GraceWindow: 5 * time.Minute},
	RuntimeMobile:       {Runtime: RuntimeMobile, PollInterval: 60 * time.Second, GraceWindow: 10 * time.Minute},
	RuntimeInAppBrowser: {Runtime: RuntimeInAppBrowser, PollInterval: 90 * time.Second, GraceWindow: 15 * time.Minute},
}

var inAppMarkers = []string{"fbav", "fban", "instagram", "line/", "micromessenger", "gsa/"}

// ProfileFor classifies a User-Agent string into a runtime profile. The
// classification is deliberately coarse; unknown agents are treated as
// desktop.
func ProfileFor(userAgent string) ClientProfile {
	ua := strings.ToLower(userAgent)
	for _, marker := range inAppMarkers {
		if strings.Contains(ua, marker) {
			return profiles[RuntimeInAppBrowser]
		}
	}
	if strings.Contains(ua, "mobile") || strings.Contains(ua, "android") || strings.Contains(ua, "iphone") || strings.Contains(ua, "ipad") {
		return profiles[RuntimeMobile]
	}
	return profiles[RuntimeDesktop]
}
