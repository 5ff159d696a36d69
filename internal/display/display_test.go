package display

import (
	"image"
	"testing"
)

func layout() []Monitor {
	return []Monitor{
		{Index: 0, Name: "eDP-1", Rect: image.Rect(0, 0, 1920, 1080), Primary: true},
		{Index: 1, Name: "HDMI-1", Rect: image.Rect(1920, 0, 3200, 720)},
	}
}

func TestFind(t *testing.T) {
	mons := layout()
	cases := []struct {
		sel  string
		want int
	}{
		{"", 0},
		{"primary", 0},
		{"#1", 1},
		{"1", 1},
		{"hdmi", 1},
		{" EDP ", 0},
	}
	for _, c := range cases {
		got, err := Find(mons, c.sel)
		if err != nil || got.Index != c.want {
			t.Errorf("Find(%q) = %v, %v; want #%d", c.sel, got, err, c.want)
		}
	}
	for _, bad := range []string{"2", "-1", "dp-9"} {
		if _, err := Find(mons, bad); err == nil {
			t.Errorf("Find(%q) succeeded", bad)
		}
	}
	if _, err := Find(nil, ""); err == nil {
		t.Errorf("Find on no monitors succeeded")
	}
}

func TestPlace(t *testing.T) {
	l, err := Place(layout(), "", "")
	if err != nil {
		t.Fatalf("Place: %v", err)
	}
	if l.Presenter.Name != "eDP-1" || l.Content.Name != "HDMI-1" || l.Shared {
		t.Errorf("default layout %+v", l)
	}
	s := l.Swap()
	if s.Presenter.Name != "HDMI-1" || s.Content.Name != "eDP-1" {
		t.Errorf("swapped layout %+v", s)
	}

	one := layout()[:1]
	l, err = Place(one, "", "")
	if err != nil || !l.Shared {
		t.Errorf("single monitor layout %+v, %v", l, err)
	}

	l, err = Place(layout(), "0", "0")
	if err != nil || !l.Shared {
		t.Errorf("forced shared layout %+v, %v", l, err)
	}
	if _, err := Place(layout(), "nope", ""); err == nil {
		t.Errorf("bad content selector accepted")
	}
}

func TestString(t *testing.T) {
	if got := layout()[0].String(); got != "#0 eDP-1 1920x1080+0+0 primary" {
		t.Errorf("String() = %q", got)
	}
}
