package notify

import "testing"

func TestUrgencyValues(t *testing.T) {
	// Verify urgency constants match D-Bus spec
	if UrgencyLow != 0 {
		t.Errorf("UrgencyLow = %d, want 0", UrgencyLow)
	}
	if UrgencyNormal != 1 {
		t.Errorf("UrgencyNormal = %d, want 1", UrgencyNormal)
	}
	if UrgencyCritical != 2 {
		t.Errorf("UrgencyCritical = %d, want 2", UrgencyCritical)
	}
}

func TestDownloadDone(t *testing.T) {
	n := DownloadDone("Kraftwerk", "Autobahn")
	if n.Title != "Download finished" {
		t.Errorf("Title = %q", n.Title)
	}
	if n.Body != "Kraftwerk - Autobahn" {
		t.Errorf("Body = %q", n.Body)
	}
	if n.Urgency != UrgencyLow {
		t.Errorf("Urgency = %d, want UrgencyLow", n.Urgency)
	}
}

func TestDownloadFailed(t *testing.T) {
	n := DownloadFailed("Kraftwerk", "Autobahn", "connection lost")
	if n.Body != "Kraftwerk - Autobahn\nconnection lost" {
		t.Errorf("Body = %q", n.Body)
	}
	if n.Urgency != UrgencyNormal {
		t.Errorf("Urgency = %d, want UrgencyNormal", n.Urgency)
	}

	n = DownloadFailed("Kraftwerk", "Autobahn", "")
	if n.Body != "Kraftwerk - Autobahn" {
		t.Errorf("Body without reason = %q", n.Body)
	}
}
