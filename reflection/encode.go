// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package reflection

import (
	"fmt"
	"io"

	"cogentcore.org/shaders/base/iox/yamlx"
	"cogentcore.org/shaders/shader"
)

// memberTable is the member list of one buffer in a reflection file.
type memberTable struct {
	Set     uint32               `yaml:"Set"`
	Binding uint32               `yaml:"Binding"`
	Members []*MemberDeclaration `yaml:"Members"`
}

// reflectionFile is the serialized form of [ReflectionData].
type reflectionFile struct {
	Resources           []*Resource              `yaml:"Resources"`
	Members             []memberTable            `yaml:"Members"`
	PushConstant        *Resource                `yaml:"PushConstant,omitempty"`
	PushConstantMembers []*MemberDeclaration     `yaml:"PushConstantMembers,omitempty"`
	NameCache           map[string]BindingKey    `yaml:"NameCache"`
	MemberCache         map[string]MemberKey     `yaml:"MemberCache"`
	Combined            []shader.CombinedSampler `yaml:"Combined,omitempty"`
	LayoutMode          shader.LayoutModes       `yaml:"LayoutMode"`
}

// file returns the serialized form of the data.
func (rd *ReflectionData) file() *reflectionFile {
	rf := &reflectionFile{
		NameCache:   rd.NameCache,
		MemberCache: rd.MemberCache,
		Combined:    rd.Combined,
		LayoutMode:  rd.LayoutMode,
	}
	for r := range rd.All() {
		rf.Resources = append(rf.Resources, r)
		if ml := rd.MemberList(r.Set, r.Binding); ml != nil {
			rf.Members = append(rf.Members, memberTable{Set: r.Set, Binding: r.Binding, Members: ml.Values})
		}
	}
	if rd.PushConstant != nil {
		rf.PushConstant = rd.PushConstant
		rf.PushConstantMembers = rd.PushConstantMembers.Values
	}
	return rf
}

// Encode writes the reflection data to the given writer as YAML.
func (rd *ReflectionData) Encode(w io.Writer) error {
	return yamlx.Write(rd.file(), w)
}

// Decode reads reflection data written by [ReflectionData.Encode].
func Decode(r io.Reader) (*ReflectionData, error) {
	rf := &reflectionFile{}
	if err := yamlx.Read(rf, r); err != nil {
		return nil, err
	}
	return rf.data()
}

// Load reads the reflection data in the given YAML file.
func Load(filename string) (*ReflectionData, error) {
	rf := &reflectionFile{}
	if err := yamlx.Open(rf, filename); err != nil {
		return nil, err
	}
	return rf.data()
}

// Save writes the reflection data to the given YAML file.
func (rd *ReflectionData) Save(filename string) error {
	return yamlx.Save(rd.file(), filename)
}

// data rebuilds the reflection data, checking that the caches
// agree with the tables.
func (rf *reflectionFile) data() (*ReflectionData, error) {
	rd := New()
	members := map[BindingKey][]*MemberDeclaration{}
	for _, mt := range rf.Members {
		members[BindingKey{Set: mt.Set, Binding: mt.Binding}] = mt.Members
	}
	for _, r := range rf.Resources {
		if err := rd.Insert(r, members[r.Key()]); err != nil {
			return nil, err
		}
	}
	if rf.PushConstant != nil {
		if err := rd.SetPushConstant(rf.PushConstant, rf.PushConstantMembers); err != nil {
			return nil, err
		}
	}
	for nm, key := range rf.NameCache {
		if got, ok := rd.NameCache[nm]; !ok || got != key {
			return nil, fmt.Errorf("reflection: name cache entry %q does not match the resource table", nm)
		}
	}
	for nm, key := range rf.MemberCache {
		if got, ok := rd.MemberCache[nm]; !ok || got != key {
			return nil, fmt.Errorf("reflection: member cache entry %q does not match the member table", nm)
		}
	}
	rd.Combined = rf.Combined
	rd.LayoutMode = rf.LayoutMode
	return rd, nil
}
