package transport

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"tvfleet/pkg/database"
	"tvfleet/pkg/models"
)

type fakeDirectory struct {
	tvs     map[string]*models.TV
	saved   map[string]string
	cleared []string
}

func newFakeDirectory(tvs ...*models.TV) *fakeDirectory {
	d := &fakeDirectory{tvs: map[string]*models.TV{}, saved: map[string]string{}}
	for _, tv := range tvs {
		d.tvs[tv.IPAddress] = tv
	}
	return d
}

func (d *fakeDirectory) ByIP(ctx context.Context, ip string) (*models.TV, error) {
	tv, ok := d.tvs[ip]
	if !ok {
		return nil, database.ErrNotFound
	}
	return tv, nil
}

func (d *fakeDirectory) SaveToken(ctx context.Context, ip, token string) error {
	d.saved[ip] = token
	return nil
}

func (d *fakeDirectory) ClearToken(ctx context.Context, ip string) error {
	d.cleared = append(d.cleared, ip)
	if tv, ok := d.tvs[ip]; ok {
		tv.Token = ""
	}
	return nil
}

type fakeProbe struct {
	reachable map[string]bool
}

func (p *fakeProbe) IsReachable(ip string) bool { return p.reachable[ip] }

type sentKey struct {
	ip, token, keyCode string
}

type fakeRemote struct {
	sent      []sentKey
	sendErr   error
	pairToken string
	pairErr   error
}

func (r *fakeRemote) SendKey(ctx context.Context, ip, token, keyCode string) error {
	r.sent = append(r.sent, sentKey{ip, token, keyCode})
	return r.sendErr
}

func (r *fakeRemote) Pair(ctx context.Context, ip string) (string, error) {
	return r.pairToken, r.pairErr
}

type fakeResolver map[string]string

func (f fakeResolver) Resolve(ctx context.Context, name string) string {
	if code, ok := f[name]; ok {
		return code
	}
	return name
}

func testController(dir *fakeDirectory, probe *fakeProbe, remote *fakeRemote) *Controller {
	c := NewController(dir, fakeResolver{"volup": "KEY_VOLUP"}, probe, remote,
		WOLConfig{DefaultBroadcast: "255.255.255.255", Port: 9})
	c.verifyInterval = time.Millisecond
	c.verifyTries = 3
	return c
}

func TestController_PowerOnAlreadyOn(t *testing.T) {
	dir := newFakeDirectory(&models.TV{IPAddress: "10.0.0.1", MACAddress: "AA:BB:CC:DD:EE:FF"})
	c := testController(dir, &fakeProbe{reachable: map[string]bool{"10.0.0.1": true}}, &fakeRemote{})

	msg, err := c.Attempt(context.Background(), "10.0.0.1", "power-on")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if msg != "TV is already on." {
		t.Errorf("unexpected message %q", msg)
	}
}

func TestController_PowerOnNoMAC(t *testing.T) {
	dir := newFakeDirectory(&models.TV{IPAddress: "10.0.0.1"})
	c := testController(dir, &fakeProbe{reachable: map[string]bool{}}, &fakeRemote{})

	if _, err := c.Attempt(context.Background(), "10.0.0.1", "power-on"); err == nil {
		t.Error("expected error for missing MAC")
	}
}

func TestController_PowerOnVerified(t *testing.T) {
	dir := newFakeDirectory(&models.TV{IPAddress: "10.0.0.1", MACAddress: "AA:BB:CC:DD:EE:FF", BroadcastIP: "10.0.0.255"})
	probe := &fakeProbe{reachable: map[string]bool{}}
	c := testController(dir, probe, &fakeRemote{})

	var gotMAC, gotBroadcast string
	c.sendWOL = func(mac, broadcastIP string, port int) error {
		gotMAC, gotBroadcast = mac, broadcastIP
		// TV comes up once the frame is out.
		probe.reachable["10.0.0.1"] = true
		return nil
	}

	msg, err := c.Attempt(context.Background(), "10.0.0.1", "power-on")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if msg != "TV successfully powered on." {
		t.Errorf("unexpected message %q", msg)
	}
	if gotMAC != "AA:BB:CC:DD:EE:FF" {
		t.Errorf("WOL sent to wrong MAC %q", gotMAC)
	}
	if gotBroadcast != "10.0.0.255" {
		t.Errorf("expected per-TV broadcast, got %q", gotBroadcast)
	}
}

func TestController_PowerOnVerificationTimesOut(t *testing.T) {
	dir := newFakeDirectory(&models.TV{IPAddress: "10.0.0.1", MACAddress: "AA:BB:CC:DD:EE:FF"})
	c := testController(dir, &fakeProbe{reachable: map[string]bool{}}, &fakeRemote{})

	var gotBroadcast string
	c.sendWOL = func(mac, broadcastIP string, port int) error {
		gotBroadcast = broadcastIP
		return nil
	}

	msg, err := c.Attempt(context.Background(), "10.0.0.1", "power-on")
	if err != nil {
		t.Fatalf("WOL without verification is still a success: %v", err)
	}
	if !strings.Contains(msg, "booting slowly") {
		t.Errorf("unexpected message %q", msg)
	}
	if gotBroadcast != "255.255.255.255" {
		t.Errorf("expected default broadcast, got %q", gotBroadcast)
	}
}

func TestController_PowerOffAlreadyOff(t *testing.T) {
	c := testController(newFakeDirectory(), &fakeProbe{reachable: map[string]bool{}}, &fakeRemote{})

	msg, err := c.Attempt(context.Background(), "10.0.0.1", "power-off")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(msg, "already off") {
		t.Errorf("unexpected message %q", msg)
	}
}

func TestController_PowerOffSendsKeyPower(t *testing.T) {
	dir := newFakeDirectory(&models.TV{IPAddress: "10.0.0.1", Token: "tok"})
	remote := &fakeRemote{}
	c := testController(dir, &fakeProbe{reachable: map[string]bool{"10.0.0.1": true}}, remote)

	msg, err := c.Attempt(context.Background(), "10.0.0.1", "power-off")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if msg != "Power-off command sent successfully." {
		t.Errorf("unexpected message %q", msg)
	}
	if len(remote.sent) != 1 || remote.sent[0].keyCode != "KEY_POWER" {
		t.Errorf("expected one KEY_POWER send, got %v", remote.sent)
	}
}

func TestController_GenericTVOff(t *testing.T) {
	c := testController(newFakeDirectory(), &fakeProbe{reachable: map[string]bool{}}, &fakeRemote{})

	_, err := c.Attempt(context.Background(), "10.0.0.1", "volup")
	if err == nil || err.Error() != "TV is off." {
		t.Errorf("expected TV is off. error, got %v", err)
	}
}

func TestController_GenericResolvesAndSends(t *testing.T) {
	dir := newFakeDirectory(&models.TV{IPAddress: "10.0.0.1", Token: "tok"})
	remote := &fakeRemote{}
	c := testController(dir, &fakeProbe{reachable: map[string]bool{"10.0.0.1": true}}, remote)

	msg, err := c.Attempt(context.Background(), "10.0.0.1", "volup")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if msg != "Sent KEY_VOLUP" {
		t.Errorf("unexpected message %q", msg)
	}
	if remote.sent[0].keyCode != "KEY_VOLUP" || remote.sent[0].token != "tok" {
		t.Errorf("unexpected send %v", remote.sent[0])
	}
}

func TestController_UnknownCommandPassesThrough(t *testing.T) {
	dir := newFakeDirectory(&models.TV{IPAddress: "10.0.0.1", Token: "tok"})
	remote := &fakeRemote{}
	c := testController(dir, &fakeProbe{reachable: map[string]bool{"10.0.0.1": true}}, remote)

	if _, err := c.Attempt(context.Background(), "10.0.0.1", "KEY_CUSTOM"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if remote.sent[0].keyCode != "KEY_CUSTOM" {
		t.Errorf("raw key codes should pass through unchanged, got %q", remote.sent[0].keyCode)
	}
}

func TestController_PairsWhenNoToken(t *testing.T) {
	dir := newFakeDirectory(&models.TV{IPAddress: "10.0.0.1"})
	remote := &fakeRemote{pairToken: "new-token"}
	c := testController(dir, &fakeProbe{reachable: map[string]bool{"10.0.0.1": true}}, remote)

	if _, err := c.Attempt(context.Background(), "10.0.0.1", "volup"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dir.saved["10.0.0.1"] != "new-token" {
		t.Errorf("expected paired token to be persisted, saved=%v", dir.saved)
	}
	if remote.sent[0].token != "new-token" {
		t.Errorf("expected send with the fresh token, got %q", remote.sent[0].token)
	}
}

func TestController_PairingFailure(t *testing.T) {
	dir := newFakeDirectory(&models.TV{IPAddress: "10.0.0.1"})
	remote := &fakeRemote{pairErr: errors.New("pairing not approved")}
	c := testController(dir, &fakeProbe{reachable: map[string]bool{"10.0.0.1": true}}, remote)

	_, err := c.Attempt(context.Background(), "10.0.0.1", "volup")
	if err == nil || !strings.Contains(err.Error(), "authentication token not available") {
		t.Errorf("expected pairing failure error, got %v", err)
	}
}

func TestController_UnauthorizedClearsToken(t *testing.T) {
	dir := newFakeDirectory(&models.TV{IPAddress: "10.0.0.1", Token: "stale"})
	remote := &fakeRemote{sendErr: ErrUnauthorized}
	c := testController(dir, &fakeProbe{reachable: map[string]bool{"10.0.0.1": true}}, remote)

	_, err := c.Attempt(context.Background(), "10.0.0.1", "volup")
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if len(dir.cleared) != 1 || dir.cleared[0] != "10.0.0.1" {
		t.Errorf("expected stale token cleared, got %v", dir.cleared)
	}
}

func TestController_UnknownAddress(t *testing.T) {
	c := testController(newFakeDirectory(), &fakeProbe{reachable: map[string]bool{"10.9.9.9": true}}, &fakeRemote{})

	_, err := c.Attempt(context.Background(), "10.9.9.9", "volup")
	if err == nil || !strings.Contains(err.Error(), "not found in inventory") {
		t.Errorf("expected inventory miss error, got %v", err)
	}
}
