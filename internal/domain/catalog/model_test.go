package catalog

import (
	"testing"
)

func TestSupportsConsultationType_Table(t *testing.T) {
	tests := []struct {
		mode                   string
		video, phone, inPerson bool
	}{
		{ModeAll, true, true, true},
		{ModeOnlineOnly, true, true, false},
		{ModeInPersonOnly, false, false, true},
		{ModeVideoOnly, true, false, false},
		{ModePhoneOnly, false, true, false},
		{ModeInPersonVideo, true, false, true},
		{ModeInPersonPhone, false, true, true},
		{"both", false, false, false},
		{"", false, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.mode, func(t *testing.T) {
			if got := SupportsConsultationType(tt.mode, ConsultationVideo); got != tt.video {
				t.Errorf("video: expected %v, got %v", tt.video, got)
			}
			if got := SupportsConsultationType(tt.mode, ConsultationPhone); got != tt.phone {
				t.Errorf("phone: expected %v, got %v", tt.phone, got)
			}
			if got := SupportsConsultationType(tt.mode, ConsultationInPerson); got != tt.inPerson {
				t.Errorf("in_person: expected %v, got %v", tt.inPerson, got)
			}
		})
	}
}

func TestSupportsConsultationType_UnknownType(t *testing.T) {
	if SupportsConsultationType(ModeAll, "carrier_pigeon") {
		t.Error("expected unknown consultation type to be unsupported")
	}
}

func TestDoctor_SupportsConsultationType_VideoOnly(t *testing.T) {
	d := &Doctor{ConsultationModes: ModeVideoOnly}
	if d.SupportsConsultationType(ConsultationPhone) {
		t.Error("video_only doctor must not accept phone")
	}
	if !d.SupportsConsultationType(ConsultationVideo) {
		t.Error("video_only doctor must accept video")
	}
}

func TestModeLabel(t *testing.T) {
	if got := ModeLabel(ModeVideoOnly); got != "Video Call Only" {
		t.Errorf("expected 'Video Call Only', got %q", got)
	}
	if got := ModeLabel(ModeOnlineOnly); got != "Online Only (Video/Phone)" {
		t.Errorf("expected 'Online Only (Video/Phone)', got %q", got)
	}
	if got := ModeLabel("mystery"); got != "mystery" {
		t.Errorf("expected passthrough for unknown mode, got %q", got)
	}
}

func TestValidConsultationMode(t *testing.T) {
	for _, m := range []string{ModeAll, ModeOnlineOnly, ModeInPersonOnly, ModeVideoOnly, ModePhoneOnly, ModeInPersonVideo, ModeInPersonPhone} {
		if !ValidConsultationMode(m) {
			t.Errorf("expected %q to be valid", m)
		}
	}
	if ValidConsultationMode("both") {
		t.Error("expected 'both' to be invalid")
	}
}

func TestValidConsultationType(t *testing.T) {
	for _, ct := range []string{ConsultationVideo, ConsultationPhone, ConsultationInPerson} {
		if !ValidConsultationType(ct) {
			t.Errorf("expected %q to be valid", ct)
		}
	}
	if ValidConsultationType("in-person") {
		t.Error("expected 'in-person' to be invalid")
	}
}
