package model

import (
	"reflect"
	"testing"
)

func TestCommonPrefsMergeKeepsUnsetFields(t *testing.T) {
	dst := &CommonPrefs{Name: String("alpha"), Color: Uint32(0xff)}
	dst.MergeFrom(&CommonPrefs{Color: Uint32(0x1), Draw: Bool(true)})

	if got := dst.GetName(); got != "alpha" {
		t.Fatalf("Name = %q, want alpha", got)
	}
	if got := dst.GetColor(); got != 0x1 {
		t.Fatalf("Color = %#x, want 0x1", got)
	}
	if !dst.GetDraw() {
		t.Fatalf("Draw = false, want true")
	}
}

func TestMergeDoesNotAliasSource(t *testing.T) {
	src := &CommonPrefs{Color: Uint32(7)}
	dst := &CommonPrefs{}
	dst.MergeFrom(src)
	*src.Color = 9
	if got := dst.GetColor(); got != 7 {
		t.Fatalf("Color = %d after mutating source, want 7", got)
	}
}

func TestNestedMessagesMergeFieldByField(t *testing.T) {
	dst := &PlatformPrefs{Common: &CommonPrefs{Label: &LabelPrefs{Draw: Bool(true), FontSize: Int32(10)}}}
	dst.MergeFrom(&PlatformPrefs{Common: &CommonPrefs{Label: &LabelPrefs{FontSize: Int32(14)}}})

	label := dst.Common.Label
	if label.Draw == nil || !*label.Draw {
		t.Fatalf("Label.Draw lost during merge")
	}
	if label.FontSize == nil || *label.FontSize != 14 {
		t.Fatalf("Label.FontSize = %v, want 14", label.FontSize)
	}
}

func TestRepeatedFieldsReplaceInsteadOfAppend(t *testing.T) {
	dst := &PlatformPrefs{GogFiles: []string{"a.gog", "b.gog"}}
	dst.MergeFrom(&PlatformPrefs{GogFiles: []string{"c.gog"}})
	if want := []string{"c.gog"}; !reflect.DeepEqual(dst.GogFiles, want) {
		t.Fatalf("GogFiles = %v, want %v", dst.GogFiles, want)
	}

	dst.MergeFrom(&PlatformPrefs{Icon: String("jet")})
	if want := []string{"c.gog"}; !reflect.DeepEqual(dst.GogFiles, want) {
		t.Fatalf("GogFiles = %v after unrelated merge, want %v", dst.GogFiles, want)
	}

	dst.MergeFrom(&PlatformPrefs{GogFiles: []string{}})
	if len(dst.GogFiles) != 0 {
		t.Fatalf("GogFiles = %v, want empty after explicit clear", dst.GogFiles)
	}
}

func TestBeamResetDefaults(t *testing.T) {
	p := &BeamPrefs{
		TargetID: ID(42),
		Common:   &CommonPrefs{DataDraw: Bool(true), AcceptProjectorIDs: []ObjectID{3}},
	}
	p.ResetDefaults()
	p.ClearRepeated()

	if got := p.GetTargetID(); got != ScenarioID {
		t.Fatalf("TargetID = %d, want cleared", got)
	}
	if p.Common.DataDraw == nil || *p.Common.DataDraw {
		t.Fatalf("DataDraw = %v, want explicit false", p.Common.DataDraw)
	}
	if p.Common.AcceptProjectorIDs != nil {
		t.Fatalf("AcceptProjectorIDs = %v, want nil", p.Common.AcceptProjectorIDs)
	}
}

func TestParseEntityKindRoundTrip(t *testing.T) {
	for _, k := range AllKinds {
		got, err := ParseEntityKind(k.String())
		if err != nil {
			t.Fatalf("ParseEntityKind(%q): %v", k.String(), err)
		}
		if got != k {
			t.Fatalf("ParseEntityKind(%q) = %v, want %v", k.String(), got, k)
		}
	}
	if _, err := ParseEntityKind("tank"); err == nil {
		t.Fatalf("expected error for unknown kind")
	}
}

func TestGenericDataExpiry(t *testing.T) {
	g := GenericData{Time: 10, Key: "k", Value: "v", Duration: 5}
	if g.Expired(14.9) {
		t.Fatalf("expired before time+duration")
	}
	if !g.Expired(15) {
		t.Fatalf("not expired at time+duration")
	}
	if (GenericData{Time: 10}).Expired(1e9) {
		t.Fatalf("zero duration should never expire")
	}
}
